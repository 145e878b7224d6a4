package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLedgerKV struct{}

func (failingLedgerKV) SetNX(context.Context, string, any, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func (failingLedgerKV) TerminalEffectKey(sessionID, ref, status string) string {
	return sessionID + ref + status
}

func TestTerminalLedgerClaimsPerOrderAndStatus(t *testing.T) {
	kv := &memoryLedgerKV{keys: map[string]time.Duration{}}
	ledger, err := NewTerminalLedger(kv, 72*time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	completed := Payment{ID: "pay-1", OrderID: "ord-1", Status: enums.PaymentStatusCompleted}

	first, err := ledger.Claim(ctx, "s1", Target{PaymentID: "pay-1"}, completed)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, 72*time.Hour, kv.keys["sf:terminal:s1:order:ord-1:completed"])

	again, err := ledger.Claim(ctx, "s1", Target{OrderID: "ord-1"}, completed)
	require.NoError(t, err)
	assert.False(t, again, "payment and order lookups share one record")

	refunded := completed
	refunded.Status = enums.PaymentStatusRefunded
	other, err := ledger.Claim(ctx, "s1", Target{OrderID: "ord-1"}, refunded)
	require.NoError(t, err)
	assert.True(t, other)

	elsewhere, err := ledger.Claim(ctx, "s2", Target{OrderID: "ord-1"}, completed)
	require.NoError(t, err)
	assert.True(t, elsewhere)
}

func TestOnceTerminalRunsEffectsWhenLedgerFails(t *testing.T) {
	handler := &recordingHandler{}
	ledger, err := NewTerminalLedger(failingLedgerKV{}, time.Hour)
	require.NoError(t, err)

	OnceTerminal(handler, ledger, nil).HandleTerminal(context.Background(), "s1", "tok",
		Target{OrderID: "ord-1"}, Payment{Status: enums.PaymentStatusFailed})
	assert.Equal(t, 1, handler.count())
}

func TestNewTerminalLedgerValidates(t *testing.T) {
	_, err := NewTerminalLedger(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewTerminalLedger(&memoryLedgerKV{}, 0)
	assert.Error(t, err)
	assert.Nil(t, OnceTerminal(nil, nil, nil))
}
