package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
)

type terminalKV interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	TerminalEffectKey(sessionID, ref, status string) string
}

// TerminalLedger records which terminal outcomes of a session already had their
// effects applied. It outlives pollers, so a payment reopened after its poller was
// reaped is not settled twice.
type TerminalLedger struct {
	kv  terminalKV
	ttl time.Duration
}

func NewTerminalLedger(kv terminalKV, ttl time.Duration) (*TerminalLedger, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("terminal ledger ttl must be positive")
	}
	return &TerminalLedger{kv: kv, ttl: ttl}, nil
}

// Claim reports whether the caller is the first to settle payment's status for the session.
func (l *TerminalLedger) Claim(ctx context.Context, sessionID string, target Target, payment Payment) (bool, error) {
	key := l.kv.TerminalEffectKey(sessionID, terminalRef(target, payment), payment.Status.String())
	first, err := l.kv.SetNX(ctx, key, "1", l.ttl)
	if err != nil {
		return false, fmt.Errorf("claim terminal effects: %w", err)
	}
	return first, nil
}

// terminalRef names the order when known; lookups by order id and by payment id
// then share one record.
func terminalRef(target Target, payment Payment) string {
	for _, id := range []string{target.OrderID, payment.OrderID} {
		if id = strings.TrimSpace(id); id != "" {
			return "order:" + id
		}
	}
	for _, id := range []string{target.PaymentID, payment.ID} {
		if id = strings.TrimSpace(id); id != "" {
			return "payment:" + id
		}
	}
	return "unknown"
}

type onceHandler struct {
	next   TerminalHandler
	ledger *TerminalLedger
	logg   *logger.Logger
}

// OnceTerminal runs next only for the first claim of a terminal outcome. When the
// ledger cannot be reached the effects still run; the poller's own guard remains.
func OnceTerminal(next TerminalHandler, ledger *TerminalLedger, logg *logger.Logger) TerminalHandler {
	if ledger == nil || next == nil {
		return next
	}
	return &onceHandler{next: next, ledger: ledger, logg: logg}
}

func (h *onceHandler) HandleTerminal(ctx context.Context, sessionID, token string, target Target, payment Payment) {
	first, err := h.ledger.Claim(ctx, sessionID, target, payment)
	if err != nil {
		if h.logg != nil {
			h.logg.Warn(h.logg.WithField(ctx, "error", err.Error()), "payment.terminal_claim_failed")
		}
		first = true
	}
	if !first {
		if h.logg != nil {
			h.logg.Info(h.logg.WithField(ctx, "status", payment.Status.String()), "payment.terminal_already_settled")
		}
		return
	}
	h.next.HandleTerminal(ctx, sessionID, token, target, payment)
}
