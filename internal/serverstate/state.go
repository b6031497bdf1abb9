package serverstate

import "sync/atomic"

// Server statuses.
const (
	StatusNotReady = "not_ready"
	StatusReady    = "ready"
	StatusDraining = "draining"
)

// State holds the server status and draining flag. All fields are updated
// together so callers always observe a consistent snapshot.
type State struct {
	Status   string `json:"status"`
	Draining bool   `json:"draining"`
}

// Store defines how the server state is persisted. Implementations may store
// state in memory or in an external service such as Redis.
type Store interface {
	Load() State
	Store(State)
}

// memoryStore implements Store using an atomic.Value. It is safe for
// concurrent use within a single process.
type memoryStore struct {
	v atomic.Value
}

// NewMemoryStore returns a memory-backed Store initialized to "not_ready".
func NewMemoryStore() Store {
	ms := &memoryStore{}
	ms.v.Store(State{Status: StatusNotReady})
	return ms
}

func (m *memoryStore) Load() State {
	if st, ok := m.v.Load().(State); ok {
		return st
	}
	return State{Status: "unknown"}
}

func (m *memoryStore) Store(s State) {
	m.v.Store(s)
}

// Tracker exposes the lifecycle state of one server instance.
type Tracker struct {
	store Store
}

// NewTracker returns a Tracker backed by s, or by memory when s is nil.
func NewTracker(s Store) *Tracker {
	if s == nil {
		s = NewMemoryStore()
	}
	return &Tracker{store: s}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() State {
	return t.store.Load()
}

// SetStatus updates the server status string.
func (t *Tracker) SetStatus(status string) {
	st := t.store.Load()
	st.Status = status
	t.store.Store(st)
}

// Status returns the current server status.
func (t *Tracker) Status() string {
	return t.store.Load().Status
}

// MarkReady marks the server as ready and clears any drain left in the
// store by a previous run of the same instance.
func (t *Tracker) MarkReady() {
	t.store.Store(State{Status: StatusReady})
}

// StartDrain marks the server as draining.
func (t *Tracker) StartDrain() {
	t.store.Store(State{Status: StatusDraining, Draining: true})
}

// IsDraining reports whether the server is draining.
func (t *Tracker) IsDraining() bool {
	return t.store.Load().Draining
}

// Healthy reports whether the server accepts new work.
func (t *Tracker) Healthy() bool {
	return !t.IsDraining()
}
