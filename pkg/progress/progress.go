// Package progress provides the shared state a batch run writes and
// concurrent observers poll. One writer, many readers; reads never block the
// sampling loop beyond a brief mutex hold.
package progress

import "sync"

// Status is the coarse state of a batch or single estimation run.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusStarted  Status = "started"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// terminal reports whether a status may no longer change.
func (s Status) terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// State is a point-in-time copy of the tracker, safe to hand to observers.
type State struct {
	Status       Status `json:"status"`
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	CurrentImage string `json:"current_image,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Tracker is a single-writer/multi-reader progress cell. Updates are
// monotonic: once a terminal status is set, further transitions are ignored
// so observers can never miss completion.
type Tracker struct {
	mu    sync.RWMutex
	state State
}

// NewTracker returns an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{state: State{Status: StatusIdle}}
}

// Start resets the tracker for a run over total items.
func (t *Tracker) Start(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{Status: StatusStarted, Total: total}
}

// TryStart claims the tracker for a run over total items. It fails when a run
// is already in flight; check and claim happen under one lock so concurrent
// callers cannot both win.
func (t *Tracker) TryStart(total int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Status == StatusStarted || t.state.Status == StatusRunning {
		return false
	}
	t.state = State{Status: StatusStarted, Total: total}
	return true
}

// Advance records that work has moved on to item index (1-based) with the
// given image name, transitioning to running.
func (t *Tracker) Advance(index int, image string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Status.terminal() {
		return
	}
	t.state.Status = StatusRunning
	t.state.Current = index
	t.state.CurrentImage = image
}

// Complete marks the run finished.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Status.terminal() {
		return
	}
	t.state.Status = StatusComplete
	t.state.Current = t.state.Total
	t.state.CurrentImage = ""
}

// Fail marks the run failed with a reason.
func (t *Tracker) Fail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Status.terminal() {
		return
	}
	t.state.Status = StatusFailed
	t.state.Error = reason
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Busy reports whether a run is in flight.
func (t *Tracker) Busy() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Status == StatusStarted || t.state.Status == StatusRunning
}
