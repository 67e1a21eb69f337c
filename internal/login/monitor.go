package login

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/LamGC/Auto-Musician/internal/netease"
	"github.com/LamGC/Auto-Musician/internal/store"
	"github.com/google/uuid"
)

// Platform bundles the external platform operations the monitor consumes.
// *netease.Client satisfies it; tests inject fakes.
type Platform interface {
	CreateLoginKey(ctx context.Context) (uuid.UUID, error)
	FetchQRCode(ctx context.Context, id uuid.UUID) (netease.QRCode, error)
	CheckLogin(ctx context.Context, id uuid.UUID) (netease.LoginResult, error)
	GetUserAccount(ctx context.Context, cookie string) (netease.UserAccount, error)
	Logout(ctx context.Context, cookie string) (bool, error)
}

type pollerEntry struct {
	poller *Poller
	cancel context.CancelFunc
}

// Monitor coordinates QR login sessions end to end: it creates sessions,
// attaches observers, starts one poller per watched session, records the
// captured credential, and fans every result out to the session's
// observers. Sessions are independent; a failure in one never touches the
// registries or poller of another.
type Monitor struct {
	platform Platform
	accounts store.Store
	interval time.Duration

	handles   *HandleRegistry
	observers *ObserverRegistry

	mu      sync.Mutex // guards pollers and the attach/teardown handshake
	pollers map[uuid.UUID]*pollerEntry
}

func NewMonitor(platform Platform, accounts store.Store, pollInterval time.Duration) *Monitor {
	return &Monitor{
		platform:  platform,
		accounts:  accounts,
		interval:  pollInterval,
		handles:   NewHandleRegistry(),
		observers: NewObserverRegistry(),
		pollers:   make(map[uuid.UUID]*pollerEntry),
	}
}

// CreateSession begins a web login session. When existing is nil a fresh
// session id is requested from the platform. The handle is registered only
// after the QR payload has been fetched, so a creation failure leaves no
// partial registration behind.
func (m *Monitor) CreateSession(ctx context.Context, existing *uuid.UUID) (CreateResponse, error) {
	var id uuid.UUID
	if existing != nil {
		id = *existing
	} else {
		created, err := m.platform.CreateLoginKey(ctx)
		if err != nil {
			return CreateResponse{}, fmt.Errorf("create login key: %w", err)
		}
		id = created
	}

	qr, err := m.platform.FetchQRCode(ctx, id)
	if err != nil {
		return CreateResponse{}, fmt.Errorf("fetch login qr code: %w", err)
	}

	handle := m.handles.Register(id)
	return CreateResponse{LoginID: handle, QRImage: qr.Blob}, nil
}

// HasSession reports whether a handle currently resolves to a live session.
func (m *Monitor) HasSession(handle Handle) bool {
	_, err := m.handles.Resolve(handle)
	return err == nil
}

// ActiveSessions returns the number of sessions currently being polled.
func (m *Monitor) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pollers)
}

// AttachObserver registers an observer for the session behind handle and
// returns a channel that closes when the session concludes. The first
// observer for a session starts its poller; the check and the start are
// atomic so a second poller can never appear for the same session.
func (m *Monitor) AttachObserver(handle Handle, obs Observer) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.handles.Resolve(handle)
	if err != nil {
		return nil, err
	}

	// Attach before starting the poller so the very first result can
	// never slip past the observer that triggered polling.
	m.observers.Attach(id, obs)

	entry, ok := m.pollers[id]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		entry = &pollerEntry{
			poller: StartPoller(ctx, id, m.platform, m.interval, m),
			cancel: cancel,
		}
		m.pollers[id] = entry
	}
	return entry.poller.Done(), nil
}

// CancelSession tears a session down without a terminal result, stopping
// its poller before the next query. Used when the server shuts down while
// logins are still pending.
func (m *Monitor) CancelSession(id uuid.UUID) {
	closing := m.teardown(id)
	for _, obs := range closing {
		obs.Close()
	}
}

// HandleResult is the poller's outcome callback. It runs on the poller
// goroutine: credential handling and fan-out for one session never overlap
// with themselves, while sessions proceed fully in parallel.
func (m *Monitor) HandleResult(id uuid.UUID, result netease.LoginResult) {
	log.Printf("[%s] login result received (code %d), processing...", id, result.Code)

	outcome := Outcome{
		Success: result.Success,
		Message: result.Message,
		UserID:  -1,
	}
	if result.Success {
		m.recordCredential(id, result.Cookie, &outcome)
	}

	payload, err := json.Marshal(&outcome)
	if err != nil {
		log.Printf("[%s] outcome marshal failed: %v", id, err)
	} else {
		m.deliver(id, payload)
	}

	if result.Code != netease.CodeScanned {
		closing := m.teardown(id)
		for _, obs := range closing {
			obs.Close()
		}
	}
}

// recordCredential filters the raw credential, resolves the account behind
// it and persists it, revoking the previous credential on a repeat login.
// Persistence and revocation failures are logged, never propagated: the
// user did log in, and observers are told so regardless.
func (m *Monitor) recordCredential(id uuid.UUID, rawCookie string, outcome *Outcome) {
	ctx := context.Background()
	cookie := netease.FilterCookie(rawCookie)

	account, err := m.platform.GetUserAccount(ctx, cookie)
	if err != nil {
		log.Printf("[%s] user account lookup failed: %v", id, err)
		return
	}
	outcome.UserID = account.UserID
	outcome.UserName = account.Nickname

	prior, exists, err := m.accounts.Find(account.UserID)
	if err != nil {
		log.Printf("[%s] account store lookup failed: %v", id, err)
	}

	record := &store.Account{
		UserID:    account.UserID,
		Cookies:   cookie,
		LoginDate: time.Now(),
	}

	if exists {
		outcome.RepeatLogin = true
		last := prior.LoginDate.Unix()
		outcome.LastLogin = &last

		// Best-effort: destroy the credential this login replaces.
		if revoked, err := m.platform.Logout(ctx, prior.Cookies); err != nil {
			log.Printf("user %d: prior credential revocation failed: %v", account.UserID, err)
		} else if !revoked {
			log.Printf("user %d: platform rejected prior credential revocation, likely already expired", account.UserID)
		}

		if err := m.accounts.Update(record); err != nil {
			log.Printf("user %d: credential update failed: %v", account.UserID, err)
		}
	} else {
		if err := m.accounts.Save(record); err != nil {
			log.Printf("user %d: credential save failed: %v", account.UserID, err)
		}
	}

	log.Printf("user %s(%d) logged in (creator=%v, repeat=%v)",
		account.Nickname, account.UserID, account.Creator, outcome.RepeatLogin)
}

// deliver fans one payload out to every observer attached at this moment,
// in attachment order. A dead or failing observer never blocks the rest.
func (m *Monitor) deliver(id uuid.UUID, payload []byte) {
	for _, obs := range m.observers.Snapshot(id) {
		if !obs.Alive() {
			continue
		}
		if err := obs.Send(payload); err != nil {
			log.Printf("[%s] observer delivery failed: %v", id, err)
		}
	}
	log.Printf("[%s] result reported to observers", id)
}

// teardown removes every trace of a session: the opaque handle, the poller
// entry and the observer set. It returns the observers so the caller can
// close them outside the lock.
func (m *Monitor) teardown(id uuid.UUID) []Observer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handles.Revoke(id)
	if entry, ok := m.pollers[id]; ok {
		entry.cancel()
		delete(m.pollers, id)
	}
	closing := m.observers.Snapshot(id)
	m.observers.Clear(id)
	return closing
}
