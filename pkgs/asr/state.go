package asr

import "sync"

// State is a job's position in the handshake.
type State int

const (
	Created State = iota
	Uploading
	Committing
	TaskCreated
	Polling
	Completed
	Failed
)

var stateNames = [...]string{
	Created:     "created",
	Uploading:   "uploading",
	Committing:  "committing",
	TaskCreated: "task_created",
	Polling:     "polling",
	Completed:   "completed",
	Failed:      "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is expected.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Tracker is embedded by provider jobs to satisfy the State half of Job.
// The zero value is a job in Created.
type Tracker struct {
	mu    sync.Mutex
	state State
	// Observe, when set, sees every transition.
	Observe func(from, to State)
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetState moves to s. Terminal states are sticky.
func (t *Tracker) SetState(s State) {
	t.mu.Lock()
	from := t.state
	if from.Terminal() {
		t.mu.Unlock()
		return
	}
	t.state = s
	observe := t.Observe
	t.mu.Unlock()

	if observe != nil && from != s {
		observe(from, s)
	}
}
