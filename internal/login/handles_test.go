package login

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestRegisterAndResolve(t *testing.T) {
	r := NewHandleRegistry()
	id := uuid.New()

	handle := r.Register(id)

	got, err := r.Resolve(handle)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != id {
		t.Errorf("Resolve() = %s, want %s", got, id)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewHandleRegistry()
	id := uuid.New()

	first := r.Register(id)
	second := r.Register(id)

	if first != second {
		t.Errorf("re-registering yielded a different handle: %d vs %d", first, second)
	}
}

func TestHandleIsDeterministic(t *testing.T) {
	id := uuid.New()
	if HandleFor(id) != HandleFor(id) {
		t.Error("HandleFor is not deterministic")
	}
}

func TestResolveUnknownHandle(t *testing.T) {
	r := NewHandleRegistry()
	if _, err := r.Resolve(Handle(12345)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Resolve() error = %v, want ErrSessionNotFound", err)
	}
}

func TestRevoke(t *testing.T) {
	r := NewHandleRegistry()
	id := uuid.New()
	handle := r.Register(id)

	r.Revoke(id)

	if _, err := r.Resolve(handle); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Resolve() after Revoke error = %v, want ErrSessionNotFound", err)
	}
}

func TestRevokeUnregistered(t *testing.T) {
	r := NewHandleRegistry()
	r.Revoke(uuid.New()) // should not panic
}

func TestRevokeLeavesOtherSessionsIntact(t *testing.T) {
	r := NewHandleRegistry()
	a := uuid.New()
	b := uuid.New()
	r.Register(a)
	handleB := r.Register(b)

	r.Revoke(a)

	if _, err := r.Resolve(handleB); err != nil {
		t.Errorf("Resolve(b) after Revoke(a) error: %v", err)
	}
}

func TestConcurrentHandleAccess(t *testing.T) {
	r := NewHandleRegistry()
	var wg sync.WaitGroup
	const goroutines = 50

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			handle := r.Register(id)
			r.Resolve(handle)
			r.Revoke(id)
		}()
	}
	wg.Wait()
}
