package login

import (
	"errors"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when an opaque handle does not resolve to
// a live login session, either because it was never issued or because the
// session already concluded.
var ErrSessionNotFound = errors.New("login session not found")

// Handle is the public stand-in for a login session id. The real id must
// never reach the front end: anyone holding it could intercept the login
// credential through the platform's status endpoint. A handle is a 32-bit
// hash of the id, so collisions are possible but acceptable for something
// this short-lived.
type Handle uint32

// HandleFor computes the handle for a session id. Deterministic, so
// re-registering a session yields the same handle.
func HandleFor(id uuid.UUID) Handle {
	h := fnv.New32a()
	h.Write(id[:])
	return Handle(h.Sum32())
}

// HandleRegistry maps opaque handles to live session ids. A handle points
// to at most one session at a time; once revoked it resolves to nothing
// until another session happens to hash to the same value.
type HandleRegistry struct {
	mu       sync.RWMutex
	sessions map[Handle]uuid.UUID
}

func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{
		sessions: make(map[Handle]uuid.UUID),
	}
}

func (r *HandleRegistry) Register(id uuid.UUID) Handle {
	handle := HandleFor(id)
	r.mu.Lock()
	r.sessions[handle] = id
	r.mu.Unlock()
	return handle
}

func (r *HandleRegistry) Resolve(handle Handle) (uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.sessions[handle]
	if !ok {
		return uuid.Nil, ErrSessionNotFound
	}
	return id, nil
}

func (r *HandleRegistry) Revoke(id uuid.UUID) {
	handle := HandleFor(id)
	r.mu.Lock()
	// A colliding registration may have replaced the mapping; only remove
	// the entry if it still points at this session.
	if current, ok := r.sessions[handle]; ok && current == id {
		delete(r.sessions, handle)
	}
	r.mu.Unlock()
}
