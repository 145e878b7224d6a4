package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

type gatewayClient interface {
	statusFetcher
	Cancel(ctx context.Context, token, paymentID string) error
}

type TrackerConfig struct {
	PollInterval time.Duration
	CancelGrace  time.Duration
	IdleTimeout  time.Duration
}

type trackedPoller struct {
	poller   *Poller
	cancel   context.CancelFunc
	lastRead time.Time
}

// Tracker owns the pollers of all sessions on this instance. A poller is stopped
// when it reaches a terminal status, when its session stops reading it for the
// idle timeout, or on shutdown.
type Tracker struct {
	gateway gatewayClient
	handler TerminalHandler
	pending pendingConsumer
	cfg     TrackerConfig
	logg    *logger.Logger
	now     func() time.Time

	root     context.Context
	stopRoot context.CancelFunc

	mu       sync.Mutex
	entries  map[string]*trackedPoller
	starting map[string]*startLock
}

// startLock serializes target resolution per session; refs counts holders and waiters.
type startLock struct {
	mu   sync.Mutex
	refs int
}

func NewTracker(gateway gatewayClient, handler TerminalHandler, pending pendingConsumer, cfg TrackerConfig, logg *logger.Logger) (*Tracker, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if pending == nil {
		return nil, fmt.Errorf("pending payment store required")
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	root, stop := context.WithCancel(context.Background())
	return &Tracker{
		gateway:  gateway,
		handler:  handler,
		pending:  pending,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
		root:     root,
		stopRoot: stop,
		entries:  map[string]*trackedPoller{},
		starting: map[string]*startLock{},
	}, nil
}

// Start begins (or resumes) following the payment of a session. A poller that
// already has a target is reused when no new target is supplied or the target
// is unchanged. Concurrent starts of one session resolve the target one at a time,
// so the pending payment is consumed by exactly one of them.
func (t *Tracker) Start(ctx context.Context, sessionID, token string, explicit, query Target) (Snapshot, error) {
	unlock := t.lockSession(sessionID)
	defer unlock()

	t.mu.Lock()
	existing := t.entries[sessionID]
	t.mu.Unlock()

	if existing != nil {
		current := existing.poller.Snapshot()
		requested := explicit
		if requested.IsZero() {
			requested = query
		}
		if requested.IsZero() && !current.Target.IsZero() || sameTarget(requested, current.Target) {
			t.touch(sessionID)
			return current, nil
		}
	}

	target, err := ResolveTarget(ctx, explicit, query, t.pending, sessionID)
	if err != nil {
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payment target")
	}

	pollCtx, cancel := context.WithCancel(t.root)
	if t.logg != nil {
		pollCtx = t.logg.WithSessionID(pollCtx, sessionID)
		if target.PaymentID != "" {
			pollCtx = t.logg.WithPaymentID(pollCtx, target.PaymentID)
		}
		if target.OrderID != "" {
			pollCtx = t.logg.WithOrderID(pollCtx, target.OrderID)
		}
	}
	poller := NewPoller(t.gateway, t.handler, sessionID, token, target, PollerConfig{
		Interval:    t.cfg.PollInterval,
		CancelGrace: t.cfg.CancelGrace,
	}, t.logg)
	poller.now = t.now
	poller.begin()

	t.mu.Lock()
	if prev := t.entries[sessionID]; prev != nil {
		prev.cancel()
	}
	t.entries[sessionID] = &trackedPoller{poller: poller, cancel: cancel, lastRead: t.now()}
	t.mu.Unlock()

	go poller.Run(pollCtx)
	return poller.Snapshot(), nil
}

func (t *Tracker) lockSession(sessionID string) func() {
	t.mu.Lock()
	lock := t.starting[sessionID]
	if lock == nil {
		lock = &startLock{}
		t.starting[sessionID] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		t.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(t.starting, sessionID)
		}
		t.mu.Unlock()
	}
}

// Snapshot returns the state of the session's poller and marks it as read.
func (t *Tracker) Snapshot(sessionID string) (Snapshot, bool) {
	t.mu.Lock()
	entry := t.entries[sessionID]
	if entry != nil {
		entry.lastRead = t.now()
	}
	t.mu.Unlock()
	if entry == nil {
		return Snapshot{}, false
	}
	return entry.poller.Snapshot(), true
}

// Cancel cancels the tracked payment once the grace period has passed.
func (t *Tracker) Cancel(ctx context.Context, sessionID, token string) (Snapshot, error) {
	t.mu.Lock()
	entry := t.entries[sessionID]
	t.mu.Unlock()
	if entry == nil {
		return Snapshot{}, i18n.Error(pkgerrors.CodeNotFound, i18n.MsgPaymentNotTracked)
	}
	snap := entry.poller.Snapshot()
	if !snap.CancelAvailable || snap.Target.PaymentID == "" {
		return snap, i18n.Error(pkgerrors.CodeStateConflict, i18n.MsgPaymentCancelTooSoon)
	}
	if err := t.gateway.Cancel(ctx, token, snap.Target.PaymentID); err != nil {
		return snap, err
	}
	t.touch(sessionID)
	return entry.poller.Snapshot(), nil
}

// Run reaps idle pollers until ctx is done, then stops every poller.
func (t *Tracker) Run(ctx context.Context) {
	interval := t.cfg.IdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-ticker.C:
			t.reapIdle()
		}
	}
}

// Stop cancels every poller.
func (t *Tracker) Stop() {
	t.stopRoot()
	t.mu.Lock()
	t.entries = map[string]*trackedPoller{}
	t.mu.Unlock()
}

func (t *Tracker) reapIdle() int {
	now := t.now()
	reaped := 0
	t.mu.Lock()
	defer t.mu.Unlock()
	for sessionID, entry := range t.entries {
		if now.Sub(entry.lastRead) > t.cfg.IdleTimeout {
			entry.cancel()
			delete(t.entries, sessionID)
			reaped++
		}
	}
	return reaped
}

func (t *Tracker) touch(sessionID string) {
	t.mu.Lock()
	if entry := t.entries[sessionID]; entry != nil {
		entry.lastRead = t.now()
	}
	t.mu.Unlock()
}

func sameTarget(requested, current Target) bool {
	if requested.IsZero() {
		return false
	}
	if requested.PaymentID != "" {
		return requested.PaymentID == current.PaymentID
	}
	return requested.OrderID == current.OrderID
}
