package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/quicklinks/common"
)

const (
	notifyDest      = "org.freedesktop.Notifications"
	notifyPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod    = "org.freedesktop.Notifications.Notify"
	defaultExpireMs = int32(5000)

	// callTimeout bounds one Notify call on a slow or wedged daemon.
	callTimeout = 2 * time.Second
)

// DesktopNotifier shows notifications through the freedesktop
// notification service on the D-Bus session bus.
type DesktopNotifier struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	appName string
	icon    string
	expire  time.Duration
}

// NewDesktopNotifier returns a notifier that connects to the session bus
// on first use.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{
		appName: common.AppName,
		icon:    "dialog-information",
		expire:  time.Duration(defaultExpireMs) * time.Millisecond,
	}
}

// Notify sends a notification. Errors are returned so the caller can
// log them; nothing is retried.
func (d *DesktopNotifier) Notify(title, message string) error {
	conn, err := d.connection()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	obj := conn.Object(notifyDest, notifyPath)
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		d.appName,
		uint32(0),
		d.icon,
		title,
		message,
		[]string{},
		map[string]dbus.Variant{},
		int32(d.expire/time.Millisecond),
	)
	if call.Err != nil {
		return fmt.Errorf("desktop notification failed: %w", call.Err)
	}
	return nil
}

// Close releases the bus connection.
func (d *DesktopNotifier) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *DesktopNotifier) connection() (*dbus.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil && d.conn.Connected() {
		return d.conn, nil
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus unavailable: %w", err)
	}
	d.conn = conn
	return conn, nil
}

// Discard is a notifier that drops every notification.
var Discard common.Notifier = common.NotifierFunc(func(title, message string) error {
	return nil
})

// Recorder keeps every notification it receives.
type Recorder struct {
	mu   sync.Mutex
	sent []Captured
}

// Captured is one notification received by a Recorder.
type Captured struct {
	Title   string
	Message string
}

// Notify implements common.Notifier.
func (r *Recorder) Notify(title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Captured{Title: title, Message: message})
	return nil
}

// Sent returns a copy of the captured notifications.
func (r *Recorder) Sent() []Captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Captured, len(r.sent))
	copy(out, r.sent)
	return out
}
