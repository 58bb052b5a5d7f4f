package vpn

import (
	"context"
	"sync"
	"time"

	"github.com/yllada/quicklinks/common"
)

// StatusSource is anything that can report the VPN state.
type StatusSource interface {
	Status(ctx context.Context) Status
}

type watcherState int

const (
	watcherIdle watcherState = iota
	watcherRunning
	watcherStopped
)

// Watcher polls a StatusSource and reports only changes of the
// connected flag. The first observation always counts as a change.
type Watcher struct {
	mu       sync.Mutex
	source   StatusSource
	interval time.Duration
	state    watcherState
	stopChan chan struct{}
	done     chan struct{}
	cancel   context.CancelFunc

	known   bool
	current Status

	dispatch       common.Dispatcher
	onStatusChange func(prev, next Status)
}

// NewWatcher creates a watcher polling source every interval.
func NewWatcher(source StatusSource, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = common.VPNStatusInterval
	}
	return &Watcher{
		source:   source,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		dispatch: common.Inline,
	}
}

// SetDispatcher sets the function used to run callbacks on the UI thread.
func (w *Watcher) SetDispatcher(dispatch common.Dispatcher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if dispatch == nil {
		dispatch = common.Inline
	}
	w.dispatch = dispatch
}

// SetOnStatusChange sets a callback for connected/disconnected changes.
func (w *Watcher) SetOnStatusChange(callback func(prev, next Status)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onStatusChange = callback
}

// Current returns the last observed status and whether one exists.
func (w *Watcher) Current() (Status, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current, w.known
}

// Start begins the polling loop.
func (w *Watcher) Start() {
	w.mu.Lock()
	switch w.state {
	case watcherRunning:
		w.mu.Unlock()
		common.LogWarn("VPN watcher already running, ignoring start")
		return
	case watcherStopped:
		w.mu.Unlock()
		common.LogWarn("VPN watcher was stopped and cannot be restarted")
		return
	}
	w.state = watcherRunning
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.mu.Unlock()

	common.LogInfo("VPN watcher started (interval: %v)", w.interval)

	go w.runLoop(ctx)
}

// Stop stops the polling loop. An in-flight query is cancelled.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case watcherStopped:
		return
	case watcherIdle:
		close(w.done)
	}
	w.state = watcherStopped
	close(w.stopChan)
	if w.cancel != nil {
		w.cancel()
	}

	common.LogInfo("VPN watcher stopped")
}

// Wait blocks until the loop exits or timeout elapses.
func (w *Watcher) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return true
	case <-timer.C:
		common.LogWarn("VPN watcher did not exit within %v, abandoning it", timeout)
		return false
	}
}

// IsRunning returns whether the watcher is polling.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == watcherRunning
}

// Refresh queries the source once and reports a change if there is one.
// It can be called while the loop runs, e.g. on user request.
func (w *Watcher) Refresh(ctx context.Context) Status {
	st := w.source.Status(ctx)
	w.observe(st)
	return st
}

func (w *Watcher) runLoop(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-timer.C:
		}

		w.Refresh(ctx)
		timer.Reset(w.interval)
	}
}

func (w *Watcher) observe(st Status) {
	w.mu.Lock()
	if w.state == watcherStopped {
		w.mu.Unlock()
		return
	}
	old := w.current
	changed := !w.known || old.Connected != st.Connected
	w.known = true
	w.current = st
	dispatch := w.dispatch
	callback := w.onStatusChange
	w.mu.Unlock()

	if !changed || callback == nil {
		return
	}
	dispatch(func() {
		if w.stopped() {
			return
		}
		callback(old, st)
	})
}

func (w *Watcher) stopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == watcherStopped
}
