// Package dashboard wires the security key monitor, the notification
// log, the desktop notifier and the VPN watcher into one application
// context. Callers create an App, start it with the dispatcher of their
// UI loop and shut it down on exit; nothing here is global.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yllada/quicklinks/common"
	"github.com/yllada/quicklinks/config"
	"github.com/yllada/quicklinks/keyring"
	"github.com/yllada/quicklinks/notification"
	"github.com/yllada/quicklinks/securitykey"
	"github.com/yllada/quicklinks/vpn"
)

// Options configures New. Nil fields get production defaults.
type Options struct {
	Config      *config.Config
	Enumerator  securitykey.Enumerator
	Notifier    common.Notifier
	Credentials common.CredentialStore
	VPNRunner   vpn.Runner
	Log         *notification.Log
}

// App is the running dashboard.
type App struct {
	cfg      *config.Config
	log      *notification.Log
	notifier common.Notifier
	creds    common.CredentialStore
	enum     securitykey.Enumerator
	monitor  *securitykey.Monitor
	client   *vpn.Client
	watcher  *vpn.Watcher

	notices     chan notice
	noticesDone chan struct{}

	mu            sync.Mutex
	keys          []string
	vpnStatus     vpn.Status
	vpnKnown      bool
	started       bool
	noticesClosed bool
}

// notice is a desktop notification waiting for the delivery goroutine.
type notice struct {
	title, message string
}

// noticeQueueSize bounds pending desktop notifications. Overflow is
// dropped rather than blocking the caller.
const noticeQueueSize = 32

// New builds an App from opts.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	log := opts.Log
	if log == nil {
		path, err := cfg.NotificationsPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve notifications file: %w", err)
		}
		log = notification.Load(path)
	}

	notifier := opts.Notifier
	if notifier == nil {
		if cfg.Notifications.Desktop {
			notifier = notification.NewDesktopNotifier()
		} else {
			notifier = notification.Discard
		}
	}

	creds := opts.Credentials
	if creds == nil {
		dir, err := cfg.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config directory: %w", err)
		}
		creds = keyring.Open(dir)
	}

	enumerator := opts.Enumerator
	if enumerator == nil {
		enumerator = securitykey.NewSystemEnumerator()
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		notifier: notifier,
		creds:    creds,
		enum:     enumerator,
		monitor: securitykey.NewMonitor(enumerator, securitykey.MonitorConfig{
			PollInterval: cfg.SecurityKeys.PollInterval,
			ErrorBackoff: cfg.SecurityKeys.ErrorBackoff,
		}),
		client: vpn.NewClient(vpn.ClientConfig{
			CLIPath:        cfg.VPN.CLIPath,
			Server:         cfg.VPN.Server,
			CommandTimeout: cfg.VPN.CommandTimeout,
			Runner:         opts.VPNRunner,
		}),
	}
	a.watcher = vpn.NewWatcher(a.client, cfg.VPN.StatusInterval)
	a.notices = make(chan notice, noticeQueueSize)
	a.noticesDone = make(chan struct{})
	go a.deliverNotices()

	a.monitor.SetOnKeysChanged(a.setKeys)
	a.monitor.SetOnKeyEvent(a.HandleKeyEvent)
	a.watcher.SetOnStatusChange(a.HandleVPNChange)

	return a, nil
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Log returns the notification log.
func (a *App) Log() *notification.Log { return a.log }

// VPN returns the VPN client.
func (a *App) VPN() *vpn.Client { return a.client }

// Credentials returns the credential store.
func (a *App) Credentials() common.CredentialStore { return a.creds }

// Start launches the monitor and, when enabled, the VPN watcher.
// Callbacks are delivered through dispatch.
func (a *App) Start(dispatch common.Dispatcher) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		common.LogWarn("Dashboard already started")
		return
	}
	a.started = true
	a.mu.Unlock()

	a.monitor.SetDispatcher(dispatch)
	a.monitor.Start()

	if a.cfg.VPN.Enabled {
		a.watcher.SetDispatcher(dispatch)
		a.watcher.Start()
	}
}

// Shutdown stops the background loops and waits for each up to the
// configured join timeout.
func (a *App) Shutdown() {
	timeout := a.cfg.SecurityKeys.JoinTimeout

	a.monitor.Stop()
	a.watcher.Stop()

	a.monitor.Wait(timeout)
	a.watcher.Wait(timeout)

	a.mu.Lock()
	if !a.noticesClosed {
		a.noticesClosed = true
		close(a.notices)
	}
	a.mu.Unlock()
	select {
	case <-a.noticesDone:
	case <-time.After(timeout):
		common.LogWarn("Desktop notifications still pending after %v, abandoning them", timeout)
	}

	if closer, ok := a.notifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			common.LogDebug("Closing notifier: %v", err)
		}
	}
	common.LogInfo("Dashboard shut down")
}

// Keys returns the names of the connected security keys.
func (a *App) Keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// VPNStatus returns the last VPN state seen by the watcher.
func (a *App) VPNStatus() (vpn.Status, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vpnStatus, a.vpnKnown
}

// ScanKeys runs a single enumeration outside the monitor and returns
// the sorted names of the keys found.
func (a *App) ScanKeys() ([]string, error) {
	devices, err := a.enum.Enumerate()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0)
	for name := range securitykey.ClassifyAll(devices) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (a *App) setKeys(keys []string) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	a.mu.Lock()
	a.keys = sorted
	a.mu.Unlock()
}

// HandleKeyEvent records a key event in the log and shows a desktop
// notification for it.
func (a *App) HandleKeyEvent(e securitykey.KeyEvent) {
	level := notification.LevelInfo
	if e.Kind == securitykey.Disconnected {
		level = notification.LevelWarning
	}

	message := e.Message()
	a.log.Add(message, level)
	a.notify(common.KeyEventTitle, message)
}

// notify queues a desktop notification. It never blocks: the notifier
// may talk to a slow daemon and this runs on the UI goroutine.
func (a *App) notify(title, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.noticesClosed {
		return
	}
	select {
	case a.notices <- notice{title: title, message: message}:
	default:
		common.LogWarn("Notification queue full, dropping %q", message)
	}
}

func (a *App) deliverNotices() {
	defer close(a.noticesDone)
	for n := range a.notices {
		if err := a.notifier.Notify(n.title, n.message); err != nil {
			common.LogWarn("Failed to show notification: %v", err)
		}
	}
}

// HandleVPNChange records a change of the VPN connected flag.
func (a *App) HandleVPNChange(_, st vpn.Status) {
	a.mu.Lock()
	a.vpnStatus = st
	a.vpnKnown = true
	a.mu.Unlock()

	if st.Connected {
		a.log.Add("VPN connected", notification.LevelSuccess)
	} else {
		a.log.Add("VPN is not connected", notification.LevelWarning)
	}
}

// RefreshVPN queries the VPN state now instead of waiting for the
// next watcher tick.
func (a *App) RefreshVPN(ctx context.Context) vpn.Status {
	st := a.watcher.Refresh(ctx)
	a.mu.Lock()
	a.vpnStatus = st
	a.vpnKnown = true
	a.mu.Unlock()
	return st
}

// ConnectVPN connects using the stored password of the configured user,
// or interactively when none is stored.
func (a *App) ConnectVPN(ctx context.Context) error {
	creds := vpn.Credentials{Username: a.cfg.VPN.Username}
	if creds.Username != "" {
		secret, err := a.creds.Get(creds.Username)
		switch {
		case err == nil:
			creds.Password = secret
		case errors.Is(err, common.ErrCredentialsNotFound):
			common.LogDebug("No stored VPN password for %s", creds.Username)
		default:
			common.LogWarn("Failed to read VPN password: %v", err)
		}
	}

	if err := a.client.Connect(ctx, creds); err != nil {
		if !errors.Is(err, vpn.ErrAlreadyConnected) {
			a.log.Add(fmt.Sprintf("VPN connection failed: %v", err), notification.LevelError)
		}
		return err
	}
	return nil
}

// DisconnectVPN disconnects the tunnel.
func (a *App) DisconnectVPN(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

