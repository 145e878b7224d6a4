package payments

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

type statusFetcher interface {
	Status(ctx context.Context, token, paymentID string) (*Payment, error)
	StatusByOrder(ctx context.Context, token, orderID string) (*Payment, error)
}

// TerminalHandler runs the side effects of a payment reaching a terminal status.
type TerminalHandler interface {
	HandleTerminal(ctx context.Context, sessionID, token string, target Target, payment Payment)
}

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePolling  Phase = "polling"
	PhaseTerminal Phase = "terminal"
)

// Snapshot is what clients read while a payment settles.
type Snapshot struct {
	Phase           Phase               `json:"phase"`
	Target          Target              `json:"target"`
	Status          enums.PaymentStatus `json:"status,omitempty"`
	Terminal        bool                `json:"terminal"`
	CancelAvailable bool                `json:"cancel_available"`
	ErrorKey        i18n.Key            `json:"error_key,omitempty"`
	Payment         *Payment            `json:"payment,omitempty"`
	StartedAt       time.Time           `json:"started_at"`
}

type PollerConfig struct {
	Interval    time.Duration
	CancelGrace time.Duration
}

// Poller follows one payment until it reaches a terminal status.
type Poller struct {
	sessionID string
	token     string
	fetcher   statusFetcher
	handler   TerminalHandler
	cfg       PollerConfig
	logg      *logger.Logger
	now       func() time.Time

	mu        sync.Mutex
	target    Target
	phase     Phase
	payment   *Payment
	errorKey  i18n.Key
	startedAt time.Time
	handled   map[enums.PaymentStatus]bool
	done      chan struct{}
}

func NewPoller(fetcher statusFetcher, handler TerminalHandler, sessionID, token string, target Target, cfg PollerConfig, logg *logger.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	return &Poller{
		sessionID: sessionID,
		token:     token,
		fetcher:   fetcher,
		handler:   handler,
		cfg:       cfg,
		logg:      logg,
		now:       time.Now,
		target:    target,
		phase:     PhaseWaiting,
		handled:   map[enums.PaymentStatus]bool{},
		done:      make(chan struct{}),
	}
}

// Run polls until a terminal status or ctx is done. Without a target it stays
// waiting and never issues a status request.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.done)

	if !p.begin() {
		return
	}
	if p.poll(ctx) {
		return
	}
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.poll(ctx) {
				return
			}
		}
	}
}

// begin moves a targeted poller from waiting to polling and stamps its start.
// It reports false when there is nothing to poll.
func (p *Poller) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target.IsZero() {
		return false
	}
	if p.phase == PhaseWaiting {
		p.phase = PhasePolling
		p.startedAt = p.now()
	}
	return true
}

// Done is closed once Run returns.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) poll(ctx context.Context) bool {
	p.mu.Lock()
	target := p.target
	p.mu.Unlock()

	var (
		payment *Payment
		err     error
	)
	if target.PaymentID != "" {
		payment, err = p.fetcher.Status(ctx, p.token, target.PaymentID)
	} else {
		payment, err = p.fetcher.StatusByOrder(ctx, p.token, target.OrderID)
	}
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.mu.Lock()
		p.errorKey = i18n.MsgPaymentStatusFailed
		p.mu.Unlock()
		if p.logg != nil {
			p.logg.Warn(p.logg.WithField(ctx, "error", err.Error()), "payment.status_failed")
		}
		return false
	}

	p.mu.Lock()
	p.errorKey = ""
	p.payment = payment
	if p.target.PaymentID == "" {
		p.target.PaymentID = payment.ID
	}
	if p.target.OrderID == "" {
		p.target.OrderID = payment.OrderID
	}
	if !payment.Status.IsTerminal() {
		p.mu.Unlock()
		return false
	}
	p.phase = PhaseTerminal
	first := !p.handled[payment.Status]
	p.handled[payment.Status] = true
	target = p.target
	p.mu.Unlock()

	if first && p.handler != nil {
		p.handler.HandleTerminal(context.WithoutCancel(ctx), p.sessionID, p.token, target, *payment)
	}
	return true
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := Snapshot{
		Phase:     p.phase,
		Target:    p.target,
		Terminal:  p.phase == PhaseTerminal,
		ErrorKey:  p.errorKey,
		StartedAt: p.startedAt,
	}
	if p.payment != nil {
		copied := *p.payment
		snap.Payment = &copied
		snap.Status = copied.Status
	}
	snap.CancelAvailable = p.phase == PhasePolling && p.now().Sub(p.startedAt) >= p.cfg.CancelGrace
	return snap
}
