package login

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LamGC/Auto-Musician/internal/netease"
	"github.com/google/uuid"
)

// fakeChecker replays a scripted sequence of status check results. Once
// the script runs out the last step repeats.
type fakeChecker struct {
	mu    sync.Mutex
	steps []checkStep
	calls int
}

type checkStep struct {
	result netease.LoginResult
	err    error
}

func (f *fakeChecker) CheckLogin(ctx context.Context, id uuid.UUID) (netease.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	step := f.steps[len(f.steps)-1]
	if f.calls < len(f.steps) {
		step = f.steps[f.calls]
	}
	f.calls++
	return step.result, step.err
}

func (f *fakeChecker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingHandler collects every result the poller reports.
type recordingHandler struct {
	mu      sync.Mutex
	results []netease.LoginResult
}

func (h *recordingHandler) HandleResult(id uuid.UUID, result netease.LoginResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, result)
}

func (h *recordingHandler) recorded() []netease.LoginResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]netease.LoginResult, len(h.results))
	copy(out, h.results)
	return out
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop in time")
	}
}

func TestPollerStopsOnConfirmed(t *testing.T) {
	checker := &fakeChecker{steps: []checkStep{
		{result: netease.LoginResult{Code: netease.CodeWaiting}},
		{result: netease.LoginResult{Code: netease.CodeScanned, Message: "授权中"}},
		{result: netease.LoginResult{Success: true, Code: netease.CodeConfirmed, Cookie: "MUSIC_U=abc;"}},
	}}
	handler := &recordingHandler{}

	p := StartPoller(context.Background(), uuid.New(), checker, time.Millisecond, handler)
	waitDone(t, p.Done())

	results := handler.recorded()
	if len(results) != 2 {
		t.Fatalf("handler saw %d results, want 2 (scanned + confirmed)", len(results))
	}
	if results[0].Code != netease.CodeScanned {
		t.Errorf("first result code = %d, want %d", results[0].Code, netease.CodeScanned)
	}
	if results[1].Code != netease.CodeConfirmed || !results[1].Success {
		t.Errorf("second result = %+v, want confirmed success", results[1])
	}
}

func TestPollerStopsOnExpired(t *testing.T) {
	checker := &fakeChecker{steps: []checkStep{
		{result: netease.LoginResult{Code: netease.CodeExpired, Message: "二维码不存在或已过期"}},
	}}
	handler := &recordingHandler{}

	p := StartPoller(context.Background(), uuid.New(), checker, time.Millisecond, handler)
	waitDone(t, p.Done())

	results := handler.recorded()
	if len(results) != 1 || results[0].Code != netease.CodeExpired {
		t.Fatalf("handler results = %+v, want a single expired result", results)
	}
}

func TestPollerNeverReportsWaiting(t *testing.T) {
	checker := &fakeChecker{steps: []checkStep{
		{result: netease.LoginResult{Code: netease.CodeWaiting}},
	}}
	handler := &recordingHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	p := StartPoller(ctx, uuid.New(), checker, time.Millisecond, handler)

	// Let it spin through a number of waiting polls, then cancel.
	for checker.callCount() < 10 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	waitDone(t, p.Done())

	if results := handler.recorded(); len(results) != 0 {
		t.Errorf("handler saw %d results for a waiting-only session, want 0", len(results))
	}
}

func TestPollerSurvivesConsecutiveErrors(t *testing.T) {
	steps := make([]checkStep, 0, maxConsecutiveErrors+2)
	for i := 0; i < maxConsecutiveErrors+1; i++ {
		steps = append(steps, checkStep{err: errors.New("connection refused")})
	}
	steps = append(steps, checkStep{result: netease.LoginResult{Success: true, Code: netease.CodeConfirmed}})
	checker := &fakeChecker{steps: steps}
	handler := &recordingHandler{}

	p := StartPoller(context.Background(), uuid.New(), checker, time.Millisecond, handler)
	waitDone(t, p.Done())

	results := handler.recorded()
	if len(results) != 1 || results[0].Code != netease.CodeConfirmed {
		t.Fatalf("handler results = %+v, want confirmed after error streak", results)
	}
	if checker.callCount() < maxConsecutiveErrors+2 {
		t.Errorf("checker called %d times, want at least %d", checker.callCount(), maxConsecutiveErrors+2)
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	checker := &fakeChecker{steps: []checkStep{
		{result: netease.LoginResult{Code: netease.CodeWaiting}},
	}}
	handler := &recordingHandler{}

	ctx, cancel := context.WithCancel(context.Background())
	p := StartPoller(ctx, uuid.New(), checker, 50*time.Millisecond, handler)
	cancel()
	waitDone(t, p.Done())
}
