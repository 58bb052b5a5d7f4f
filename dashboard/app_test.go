package dashboard

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yllada/quicklinks/config"
	"github.com/yllada/quicklinks/keyring"
	"github.com/yllada/quicklinks/notification"
	"github.com/yllada/quicklinks/securitykey"
	"github.com/yllada/quicklinks/vpn"
)

type cliStub struct {
	mu    sync.Mutex
	state string
	calls []string
	stdin []string
}

func (c *cliStub) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmd := strings.Join(args, " ")
	c.calls = append(c.calls, cmd)
	c.stdin = append(c.stdin, stdin)
	switch cmd {
	case "state":
		return "  >> state: " + c.state + "\n", nil
	case "-s":
		c.state = "Connected"
		return "  >> state: Connected\n", nil
	}
	return "", nil
}

func newTestApp(t *testing.T, enum securitykey.Enumerator, runner vpn.Runner) (*App, *notification.Recorder) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.SecurityKeys.PollInterval = 10 * time.Millisecond
	cfg.VPN.CLIPath = "/opt/cisco/anyconnect/bin/vpn"
	cfg.VPN.Server = "vpn.example.com"
	cfg.VPN.Username = "alice"
	cfg.VPN.StatusInterval = 10 * time.Millisecond

	rec := &notification.Recorder{}
	app, err := New(Options{
		Config:      cfg,
		Enumerator:  enum,
		Notifier:    rec,
		Credentials: keyring.OpenFile(dir),
		VPNRunner:   runner,
		Log:         notification.NewLog(filepath.Join(dir, "notifications.json")),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return app, rec
}

func TestApp_KeyEventBecomesEntry(t *testing.T) {
	app, rec := newTestApp(t, nil, &cliStub{state: "Disconnected"})

	app.HandleKeyEvent(securitykey.KeyEvent{Name: "ZUKEY 2", Kind: securitykey.Connected})
	app.HandleKeyEvent(securitykey.KeyEvent{Name: "ZUKEY 2", Kind: securitykey.Disconnected})

	entries := app.Log().Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "Security key connected: ZUKEY 2" || entries[0].Level != notification.LevelInfo {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Message != "Security key disconnected: ZUKEY 2" || entries[1].Level != notification.LevelWarning {
		t.Errorf("entry 1 = %+v", entries[1])
	}

	sent := waitForSent(t, rec, 2)
	if len(sent) != 2 || sent[0].Title != "Security Key Event" || sent[0].Message != "Security key connected: ZUKEY 2" {
		t.Errorf("notifications = %+v", sent)
	}
}

func waitForSent(t *testing.T, rec *notification.Recorder, n int) []notification.Captured {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		sent := rec.Sent()
		if len(sent) >= n || time.Now().After(deadline) {
			return sent
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// blockingNotifier holds every Notify call until release is closed.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingNotifier) Notify(title, message string) error {
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func TestApp_SlowNotifierDoesNotBlockKeyEvents(t *testing.T) {
	notifier := &blockingNotifier{entered: make(chan struct{}, 8), release: make(chan struct{})}
	app, err := New(Options{
		Config:      config.DefaultConfig(),
		Enumerator:  securitykey.EnumeratorFunc(func() ([]securitykey.DeviceDescriptor, error) { return nil, nil }),
		Notifier:    notifier,
		Credentials: keyring.OpenFile(t.TempDir()),
		VPNRunner:   &cliStub{},
		Log:         notification.NewLog(filepath.Join(t.TempDir(), "notifications.json")),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.HandleKeyEvent(securitykey.KeyEvent{Name: "ZUKEY 2", Kind: securitykey.Connected})
		app.HandleKeyEvent(securitykey.KeyEvent{Name: "ZUKEY 2", Kind: securitykey.Disconnected})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleKeyEvent blocked on the notifier")
	}
	if n := app.Log().Len(); n != 2 {
		t.Errorf("got %d log entries, want 2", n)
	}

	select {
	case <-notifier.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never delivered")
	}
	close(notifier.release)
	app.Shutdown()
}

func TestApp_VPNChangeBecomesEntry(t *testing.T) {
	app, _ := newTestApp(t, nil, &cliStub{})

	app.HandleVPNChange(vpn.Status{}, vpn.Status{Connected: false})
	app.HandleVPNChange(vpn.Status{}, vpn.Status{Connected: true})

	entries := app.Log().Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "VPN is not connected" || entries[0].Level != notification.LevelWarning {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[1].Message != "VPN connected" || entries[1].Level != notification.LevelSuccess {
		t.Errorf("entry 1 = %+v", entries[1])
	}
	if st, ok := app.VPNStatus(); !ok || !st.Connected {
		t.Errorf("VPNStatus() = %+v, %v", st, ok)
	}
}

func TestApp_StartDeliversThroughDispatcher(t *testing.T) {
	enum := securitykey.EnumeratorFunc(func() ([]securitykey.DeviceDescriptor, error) {
		return []securitykey.DeviceDescriptor{{VendorID: 0x1949, ProductID: 0x0429}}, nil
	})
	app, _ := newTestApp(t, enum, &cliStub{state: "Disconnected"})

	queue := make(chan func(), 16)
	app.Start(func(fn func()) { queue <- fn })
	defer app.Shutdown()

	deadline := time.After(2 * time.Second)
	for len(app.Keys()) == 0 {
		select {
		case fn := <-queue:
			fn()
		case <-deadline:
			t.Fatal("no key reported within 2s")
		}
	}

	if keys := app.Keys(); len(keys) != 1 || keys[0] != "ZUKEY 2" {
		t.Errorf("Keys() = %v, want [ZUKEY 2]", keys)
	}

	found := false
	for _, e := range app.Log().Entries() {
		if e.Message == "Security key connected: ZUKEY 2" && e.Level == notification.LevelInfo {
			found = true
		}
	}
	if !found {
		t.Errorf("log is missing the connect entry: %+v", app.Log().Entries())
	}
}

func TestApp_ConnectVPNUsesStoredPassword(t *testing.T) {
	stub := &cliStub{state: "Disconnected"}
	app, _ := newTestApp(t, nil, stub)

	if err := app.Credentials().Set("alice", "s3cret"); err != nil {
		t.Fatal(err)
	}
	if err := app.ConnectVPN(context.Background()); err != nil {
		t.Fatalf("ConnectVPN() error = %v", err)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	last := stub.stdin[len(stub.stdin)-1]
	if !strings.Contains(last, "alice\ns3cret\n") {
		t.Errorf("stdin script = %q", last)
	}
}

func TestApp_ConnectVPNAlreadyConnectedNotLogged(t *testing.T) {
	app, _ := newTestApp(t, nil, &cliStub{state: "Connected"})

	if err := app.ConnectVPN(context.Background()); err != vpn.ErrAlreadyConnected {
		t.Errorf("ConnectVPN() error = %v, want ErrAlreadyConnected", err)
	}
	if n := app.Log().Len(); n != 0 {
		t.Errorf("got %d log entries, want 0", n)
	}
}

func TestApp_ScanKeys(t *testing.T) {
	enum := securitykey.EnumeratorFunc(func() ([]securitykey.DeviceDescriptor, error) {
		return []securitykey.DeviceDescriptor{
			{VendorID: 0x1050, ProductID: 0x0407, Manufacturer: "Yubico", Product: "YubiKey"},
			{VendorID: 0x1949, ProductID: 0x0429},
			{VendorID: 0x046d, ProductID: 0xc52b, Product: "USB Receiver"},
		}, nil
	})
	app, _ := newTestApp(t, enum, &cliStub{})

	keys, err := app.ScanKeys()
	if err != nil {
		t.Fatalf("ScanKeys() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "Yubico YubiKey" || keys[1] != "ZUKEY 2" {
		t.Errorf("ScanKeys() = %v", keys)
	}
}
