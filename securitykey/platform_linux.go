//go:build linux

package securitykey

func newPlatformEnumerator() Enumerator {
	return &SysfsEnumerator{Root: DefaultSysfsRoot}
}
