package securitykey

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yllada/quicklinks/common"
)

// EventKind tells whether a key appeared or went away.
type EventKind int

const (
	Connected EventKind = iota
	Disconnected
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// KeyEvent is a presence change for one key name.
type KeyEvent struct {
	Name string
	Kind EventKind
	Time time.Time
}

// Message formats the event the way it is shown to the user,
// e.g. "Security key connected: ZUKEY 2".
func (e KeyEvent) Message() string {
	return fmt.Sprintf("Security key %s: %s", e.Kind, e.Name)
}

// MonitorConfig holds the polling parameters of a Monitor.
type MonitorConfig struct {
	// PollInterval is the wait between two enumeration cycles.
	PollInterval time.Duration
	// ErrorBackoff is the wait after a failed enumeration.
	ErrorBackoff time.Duration
}

// DefaultMonitorConfig returns the standard one second poll with a five
// second backoff after errors.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval: common.KeyPollInterval,
		ErrorBackoff: common.KeyErrorBackoff,
	}
}

type monitorState int

const (
	stateIdle monitorState = iota
	stateRunning
	stateStopped
)

// Monitor polls an Enumerator and reports security keys being plugged
// in and removed.
//
// Keys are identified by display name only, so two identical keys count
// as one: removing one of them while the other stays plugged in is not
// reported.
type Monitor struct {
	mu         sync.Mutex
	enumerator Enumerator
	config     MonitorConfig
	state      monitorState
	previous   map[string]struct{}
	current    []string
	stopChan   chan struct{}
	done       chan struct{}

	dispatch      common.Dispatcher
	onKeysChanged func(keys []string)
	onKeyEvent    func(event KeyEvent)

	now func() time.Time
}

// NewMonitor creates a monitor over enumerator. Zero durations in cfg
// are replaced by the defaults.
func NewMonitor(enumerator Enumerator, cfg MonitorConfig) *Monitor {
	def := DefaultMonitorConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = def.ErrorBackoff
	}
	return &Monitor{
		enumerator: enumerator,
		config:     cfg,
		previous:   make(map[string]struct{}),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		dispatch:   common.Inline,
		now:        time.Now,
	}
}

// SetDispatcher sets the function used to hand callbacks to the UI
// thread. The default runs them on the monitor goroutine.
func (m *Monitor) SetDispatcher(dispatch common.Dispatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dispatch == nil {
		dispatch = common.Inline
	}
	m.dispatch = dispatch
}

// SetOnKeysChanged sets a callback receiving the sorted key list each
// time it changes.
func (m *Monitor) SetOnKeysChanged(callback func(keys []string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onKeysChanged = callback
}

// SetOnKeyEvent sets a callback invoked once per presence change.
func (m *Monitor) SetOnKeyEvent(callback func(event KeyEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onKeyEvent = callback
}

// Start begins polling in a background goroutine.
func (m *Monitor) Start() {
	m.mu.Lock()
	switch m.state {
	case stateRunning:
		m.mu.Unlock()
		common.LogWarn("Security key monitor already running, ignoring start")
		return
	case stateStopped:
		m.mu.Unlock()
		common.LogWarn("Security key monitor was stopped and cannot be restarted")
		return
	}
	m.state = stateRunning
	m.mu.Unlock()

	common.LogInfo("Security key monitor started (interval: %v)", m.config.PollInterval)

	go m.runLoop()
}

// Stop asks the polling goroutine to exit. It does not wait; use Wait
// for that. Stopping is permanent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case stateStopped:
		return
	case stateIdle:
		// Never started: nothing will close done.
		close(m.done)
	}
	m.state = stateStopped
	close(m.stopChan)

	common.LogInfo("Security key monitor stopped")
}

// Wait blocks until the polling goroutine exits or timeout elapses.
// It returns false if the goroutine is still running, in which case it
// is abandoned.
func (m *Monitor) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-m.done:
		return true
	case <-timer.C:
		common.LogWarn("Security key monitor did not exit within %v, abandoning it", timeout)
		return false
	}
}

// IsRunning returns whether the monitor is polling.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stateRunning
}

// CurrentKeys returns the sorted names found by the last completed cycle.
func (m *Monitor) CurrentKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, len(m.current))
	copy(keys, m.current)
	return keys
}

// runLoop is the main polling loop.
func (m *Monitor) runLoop() {
	defer close(m.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-timer.C:
		}

		wait := m.config.PollInterval
		if err := m.poll(); err != nil {
			common.LogError("Security key enumeration failed: %v", err)
			wait = m.config.ErrorBackoff
		}
		timer.Reset(wait)
	}
}

// poll runs one enumeration cycle and dispatches its results.
func (m *Monitor) poll() error {
	devices, err := m.enumerate()
	if err != nil {
		return err
	}
	current := ClassifyAll(devices)

	m.mu.Lock()
	if m.state == stateStopped {
		m.mu.Unlock()
		return nil
	}

	var added, removed []string
	for name := range current {
		if _, ok := m.previous[name]; !ok {
			added = append(added, name)
		}
	}
	for name := range m.previous {
		if _, ok := current[name]; !ok {
			removed = append(removed, name)
		}
	}
	m.previous = current

	changed := len(added) > 0 || len(removed) > 0
	if changed {
		m.current = sortedNames(current)
	}

	dispatch := m.dispatch
	onKeysChanged := m.onKeysChanged
	onKeyEvent := m.onKeyEvent
	keys := make([]string, len(m.current))
	copy(keys, m.current)
	m.mu.Unlock()

	if !changed {
		return nil
	}

	sort.Strings(added)
	sort.Strings(removed)

	now := m.now()
	events := make([]KeyEvent, 0, len(added)+len(removed))
	for _, name := range added {
		events = append(events, KeyEvent{Name: name, Kind: Connected, Time: now})
	}
	for _, name := range removed {
		events = append(events, KeyEvent{Name: name, Kind: Disconnected, Time: now})
	}

	// One closure per cycle keeps events ordered across cycles. Stop may
	// land between the unlock above and the closure running, so the state
	// is checked again before anything is reported.
	dispatch(func() {
		if m.stopped() {
			return
		}
		for _, e := range events {
			if e.Kind == Connected {
				common.LogInfo("%s", e.Message())
			} else {
				common.LogWarn("%s", e.Message())
			}
		}
		if onKeysChanged != nil {
			onKeysChanged(keys)
		}
		if onKeyEvent != nil {
			for _, e := range events {
				onKeyEvent(e)
			}
		}
	})
	return nil
}

func (m *Monitor) stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stateStopped
}

// enumerate calls the enumerator, turning a panic into an error.
func (m *Monitor) enumerate() (devices []DeviceDescriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", common.ErrEnumeration, r)
		}
	}()
	return m.enumerator.Enumerate()
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
