package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
)

type scriptedFetcher struct {
	mu        sync.Mutex
	statuses  []enums.PaymentStatus
	errs      []error
	byID      []string
	byOrder   []string
	cancelled []string
	cancelErr error
}

func (f *scriptedFetcher) next(id, orderID string) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.byID) + len(f.byOrder) - 1
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	status := f.statuses[len(f.statuses)-1]
	if call < len(f.statuses) {
		status = f.statuses[call]
	}
	if id == "" {
		id = "pay-from-order"
	}
	if orderID == "" {
		orderID = "ord-1"
	}
	return &Payment{ID: id, OrderID: orderID, Status: status}, nil
}

func (f *scriptedFetcher) Status(_ context.Context, _, paymentID string) (*Payment, error) {
	f.mu.Lock()
	f.byID = append(f.byID, paymentID)
	f.mu.Unlock()
	return f.next(paymentID, "")
}

func (f *scriptedFetcher) StatusByOrder(_ context.Context, _, orderID string) (*Payment, error) {
	f.mu.Lock()
	f.byOrder = append(f.byOrder, orderID)
	f.mu.Unlock()
	return f.next("", orderID)
}

func (f *scriptedFetcher) Cancel(_ context.Context, _, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, paymentID)
	return f.cancelErr
}

func (f *scriptedFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID) + len(f.byOrder)
}

type recordingHandler struct {
	mu       sync.Mutex
	payments []Payment
	targets  []Target
}

func (h *recordingHandler) HandleTerminal(_ context.Context, _, _ string, target Target, payment Payment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payments = append(h.payments, payment)
	h.targets = append(h.targets, target)
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.payments)
}

func waitDone(t *testing.T, p *Poller) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("poller did not finish")
	}
}

func TestPollerWithoutTargetWaitsWithoutRequests(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{statuses: []enums.PaymentStatus{enums.PaymentStatusCompleted}}
	p := NewPoller(fetcher, nil, "s1", "tok", Target{}, PollerConfig{Interval: time.Millisecond}, nil)
	p.Run(context.Background())

	if fetcher.calls() != 0 {
		t.Fatalf("expected no status requests, got %d", fetcher.calls())
	}
	snap := p.Snapshot()
	if snap.Phase != PhaseWaiting || snap.Terminal || snap.CancelAvailable {
		t.Fatalf("unexpected waiting snapshot %+v", snap)
	}
}

func TestPollerStopsAtTerminalAndHandlesOnce(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{statuses: []enums.PaymentStatus{
		enums.PaymentStatusPending,
		enums.PaymentStatusProcessing,
		enums.PaymentStatusCompleted,
	}}
	handler := &recordingHandler{}
	p := NewPoller(fetcher, handler, "s1", "tok", Target{PaymentID: "pay-1"}, PollerConfig{Interval: time.Millisecond}, nil)

	go p.Run(context.Background())
	waitDone(t, p)

	if fetcher.calls() != 3 {
		t.Fatalf("expected polling to stop after terminal status, got %d calls", fetcher.calls())
	}
	if handler.count() != 1 {
		t.Fatalf("expected exactly one terminal effect, got %d", handler.count())
	}
	if handler.payments[0].Status != enums.PaymentStatusCompleted {
		t.Fatalf("unexpected terminal payment %+v", handler.payments[0])
	}
	snap := p.Snapshot()
	if !snap.Terminal || snap.Status != enums.PaymentStatusCompleted || snap.CancelAvailable {
		t.Fatalf("unexpected terminal snapshot %+v", snap)
	}
}

func TestPollerByOrderLearnsPaymentID(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{statuses: []enums.PaymentStatus{enums.PaymentStatusFailed}}
	handler := &recordingHandler{}
	p := NewPoller(fetcher, handler, "s1", "tok", Target{OrderID: "ord-7"}, PollerConfig{Interval: time.Millisecond}, nil)
	p.Run(context.Background())

	if len(fetcher.byOrder) != 1 || fetcher.byOrder[0] != "ord-7" {
		t.Fatalf("expected lookup by order id, got %v", fetcher.byOrder)
	}
	if handler.targets[0].PaymentID != "pay-from-order" || handler.targets[0].OrderID != "ord-7" {
		t.Fatalf("unexpected handler target %+v", handler.targets[0])
	}
}

func TestPollerKeepsPollingThroughErrors(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{
		statuses: []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusPending, enums.PaymentStatusCancelled},
		errs:     []error{nil, errors.New("502")},
	}
	p := NewPoller(fetcher, nil, "s1", "tok", Target{PaymentID: "pay-1"}, PollerConfig{Interval: time.Millisecond}, nil)
	p.Run(context.Background())

	snap := p.Snapshot()
	if snap.Status != enums.PaymentStatusCancelled || snap.ErrorKey != "" {
		t.Fatalf("expected recovery after transient error, got %+v", snap)
	}
}

func TestPollerRecordsStatusError(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{
		statuses: []enums.PaymentStatus{enums.PaymentStatusPending},
		errs:     []error{errors.New("down")},
	}
	p := NewPoller(fetcher, nil, "s1", "tok", Target{PaymentID: "pay-1"}, PollerConfig{Interval: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for p.Snapshot().ErrorKey == "" && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := p.Snapshot().ErrorKey; got != i18n.MsgPaymentStatusFailed {
		t.Fatalf("expected status error key, got %q", got)
	}
	cancel()
	waitDone(t, p)
}

func TestPollerCancelAvailableAfterGrace(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	var clockMu sync.Mutex
	fetcher := &scriptedFetcher{statuses: []enums.PaymentStatus{enums.PaymentStatusPending}}
	p := NewPoller(fetcher, nil, "s1", "tok", Target{PaymentID: "pay-1"}, PollerConfig{Interval: time.Hour, CancelGrace: 10 * time.Second}, nil)
	p.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return clock
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for fetcher.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if p.Snapshot().CancelAvailable {
		t.Fatalf("cancel must not be offered before the grace period")
	}

	clockMu.Lock()
	clock = start.Add(10 * time.Second)
	clockMu.Unlock()
	if !p.Snapshot().CancelAvailable {
		t.Fatalf("cancel should be offered after the grace period")
	}
}
