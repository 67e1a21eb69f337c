package login

import (
	"sync"

	"github.com/google/uuid"
)

// Observer is one live front-end connection watching a login session.
// The connection's lifecycle belongs to the transport layer; the registry
// only checks liveness before writing and drops its references at cleanup.
type Observer interface {
	// Alive reports whether the connection can still accept a payload.
	Alive() bool
	// Send delivers one JSON payload to the connection.
	Send(payload []byte) error
	// Close disconnects the observer. Must be idempotent.
	Close() error
}

// ObserverRegistry associates each login session with the set of observers
// currently watching it. Multiple observers per session are normal: a page
// reload attaches a second connection while the first may still be live.
type ObserverRegistry struct {
	mu        sync.RWMutex
	observers map[uuid.UUID][]Observer
}

func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{
		observers: make(map[uuid.UUID][]Observer),
	}
}

// Attach appends an observer to the session's set, creating it if absent.
func (r *ObserverRegistry) Attach(id uuid.UUID, obs Observer) {
	r.mu.Lock()
	r.observers[id] = append(r.observers[id], obs)
	r.mu.Unlock()
}

// IsEmpty reports whether the session has no attached observers.
func (r *ObserverRegistry) IsEmpty(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.observers[id]) == 0
}

// Snapshot returns a copy of the session's observer set in attachment
// order. Fan-out iterates the copy so observers can detach concurrently
// without corrupting the iteration.
func (r *ObserverRegistry) Snapshot(id uuid.UUID) []Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	current := r.observers[id]
	if len(current) == 0 {
		return nil
	}
	snapshot := make([]Observer, len(current))
	copy(snapshot, current)
	return snapshot
}

// Clear drops all observers for a session. It does not close them; that is
// the coordinator's job during teardown.
func (r *ObserverRegistry) Clear(id uuid.UUID) {
	r.mu.Lock()
	delete(r.observers, id)
	r.mu.Unlock()
}
