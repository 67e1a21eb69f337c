package login

import (
	"context"
	"log"
	"time"

	"github.com/LamGC/Auto-Musician/internal/netease"
	"github.com/google/uuid"
)

// maxConsecutiveErrors is the number of back-to-back failed status checks
// after which the poller starts warning. Polling continues regardless; a
// flaky upstream must not kill a login session that may still conclude.
const maxConsecutiveErrors = 5

// StatusChecker is the single platform operation the poller needs.
type StatusChecker interface {
	CheckLogin(ctx context.Context, id uuid.UUID) (netease.LoginResult, error)
}

// ResultHandler receives every non-waiting poll result for a session.
// It is invoked on the poller's goroutine with no locks held, at most once
// per distinct result: once for "scanned", once for the terminal outcome.
type ResultHandler interface {
	HandleResult(id uuid.UUID, result netease.LoginResult)
}

// Poller drives one login session's status loop. It queries the platform
// immediately and then on a fixed interval until the session reaches a
// terminal code or its context is cancelled.
type Poller struct {
	id       uuid.UUID
	checker  StatusChecker
	interval time.Duration
	handler  ResultHandler
	done     chan struct{}
}

// StartPoller launches the polling goroutine and returns its handle.
func StartPoller(ctx context.Context, id uuid.UUID, checker StatusChecker, interval time.Duration, handler ResultHandler) *Poller {
	p := &Poller{
		id:       id,
		checker:  checker,
		interval: interval,
		handler:  handler,
		done:     make(chan struct{}),
	}
	go p.run(ctx)
	return p
}

// Done is closed once the poller has stopped: after terminal delivery has
// completed, or after cancellation.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	errorCount := 0
	for {
		if p.pollOnce(ctx, &errorCount) {
			return
		}
		select {
		case <-ctx.Done():
			log.Printf("[%s] login polling cancelled", p.id)
			return
		case <-ticker.C:
		}
	}
}

// pollOnce issues one status query and reports whether the loop is done.
func (p *Poller) pollOnce(ctx context.Context, errorCount *int) bool {
	result, err := p.checker.CheckLogin(ctx, p.id)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		*errorCount++
		log.Printf("[%s] login status check failed: %v", p.id, err)
		if *errorCount > maxConsecutiveErrors {
			log.Printf("[%s] login status check keeps failing (%d consecutive errors)", p.id, *errorCount)
		}
		return false
	}
	*errorCount = 0

	// The waiting code means nothing happened; reporting it would only
	// produce fan-out noise.
	if result.Code == netease.CodeWaiting {
		return false
	}

	p.handler.HandleResult(p.id, result)

	// "Scanned, awaiting confirmation" is the only non-terminal result;
	// anything else was the terminal delivery.
	return result.Code != netease.CodeScanned
}
