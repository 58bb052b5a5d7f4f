// Package securitykey detects hardware security keys (YubiKey, ZUKEY,
// Titan, Feitian and similar) attached over USB.
//
// Classify turns a raw DeviceDescriptor into a key name. Monitor polls an
// Enumerator, diffs the classified names between cycles and reports
// Connected and Disconnected events through a dispatcher, usually the
// UI event loop.
//
// Usage:
//
//	m := securitykey.NewMonitor(securitykey.NewSystemEnumerator(), securitykey.DefaultMonitorConfig())
//	m.SetOnKeyEvent(func(e securitykey.KeyEvent) { fmt.Println(e.Message()) })
//	m.Start()
//	defer m.Wait(time.Second)
//	defer m.Stop()
package securitykey
