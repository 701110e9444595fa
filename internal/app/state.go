package app

import (
	"sync"
)

// State is the orchestrator's lifecycle state.
type State int32

// Orchestrator states.
const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// appState is the state shared across load and submit cycles. Its mutex
// guards apply steps only; callers never hold it across network calls.
type appState struct {
	mu sync.Mutex

	state        State
	seq          uint64 // last issued cycle
	lastApplied  uint64 // newest cycle whose result reached the surfaces
	chartCreated bool
	statusGen    uint64
}

// begin issues the next cycle number and enters Loading.
func (a *appState) begin() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	a.state = StateLoading
	return a.seq
}

func (a *appState) set(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *appState) get() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// apply runs fn under the lock on behalf of cycle. A cycle older than the
// last applied one is stale; it is skipped when discard is set.
func (a *appState) apply(cycle uint64, discard bool, fn func()) (applied, stale bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	stale = cycle < a.lastApplied
	if stale && discard {
		return false, true
	}
	if cycle > a.lastApplied {
		a.lastApplied = cycle
	}
	fn()
	return true, stale
}

// withLock runs fn under the lock.
func (a *appState) withLock(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}
