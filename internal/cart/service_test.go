package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/restaurant-storefront/internal/catalog"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuoter struct {
	mu          sync.Mutex
	quotes      map[uuid.UUID]*catalog.Quote
	inactive    map[uuid.UUID]bool
	lastRequest catalog.QuoteRequest
}

func (s *stubQuoter) Quote(_ context.Context, req catalog.QuoteRequest) (*catalog.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRequest = req
	q, ok := s.quotes[req.CatalogID]
	if !ok {
		return nil, i18n.Error(pkgerrors.CodeNotFound, i18n.MsgItemUnavailable)
	}
	out := *q
	out.Size = req.Size
	return &out, nil
}

func (s *stubQuoter) EnsureActiveBranch(_ context.Context, id uuid.UUID) error {
	if s.inactive[id] {
		return i18n.Error(pkgerrors.CodeNotFound, i18n.MsgBranchUnavailable)
	}
	return nil
}

type stubFees struct {
	mu          sync.Mutex
	invalidated []string
	err         error
}

func (s *stubFees) Invalidate(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, sessionID)
	return s.err
}

type memoryStore struct {
	carts   map[string]Cart
	saveErr error
}

func (m *memoryStore) Load(_ context.Context, sessionID string) (Cart, error) {
	return m.carts[sessionID], nil
}

func (m *memoryStore) Update(_ context.Context, sessionID string, fn func(Cart) (Cart, error)) (Cart, error) {
	current := m.carts[sessionID]
	next, err := fn(current)
	if errors.Is(err, errUnchanged) {
		return current, nil
	}
	if err != nil {
		return Cart{}, err
	}
	if m.saveErr != nil {
		return Cart{}, m.saveErr
	}
	m.carts[sessionID] = next
	return next, nil
}

type serviceFixture struct {
	svc     Service
	store   *memoryStore
	fees    *stubFees
	quoter  *stubQuoter
	branchA uuid.UUID
	branchB uuid.UUID
	burger  uuid.UUID
	pizza   uuid.UUID
	combo   uuid.UUID
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	fx := serviceFixture{
		store:   &memoryStore{carts: map[string]Cart{}},
		fees:    &stubFees{},
		branchA: uuid.New(),
		branchB: uuid.New(),
		burger:  uuid.New(),
		pizza:   uuid.New(),
		combo:   uuid.New(),
	}
	fx.quoter = &stubQuoter{
		quotes: map[uuid.UUID]*catalog.Quote{
			fx.burger: {Type: enums.ItemTypeProduct, CatalogID: fx.burger, BranchID: fx.branchA, TitleEN: "Burger", UnitPrice: decimal.NewFromInt(50)},
			fx.pizza:  {Type: enums.ItemTypeProduct, CatalogID: fx.pizza, BranchID: fx.branchB, TitleEN: "Pizza", UnitPrice: decimal.NewFromInt(80)},
			fx.combo:  {Type: enums.ItemTypeOffer, CatalogID: fx.combo, BranchID: fx.branchA, TitleEN: "Combo", UnitPrice: decimal.RequireFromString("199.99")},
		},
		inactive: map[uuid.UUID]bool{},
	}
	svc, err := NewService(fx.store, fx.quoter, fx.fees, nil)
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return testNow }
	fx.svc = svc
	return fx
}

func TestServiceAddItemPricesFromCatalog(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	view, err := fx.svc.AddItem(ctx, "s1", AddItemInput{Type: enums.ItemTypeProduct, CatalogID: fx.burger, Quantity: 2, Notes: "  no onions "})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.True(t, view.TotalPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, "no onions", view.Items[0].Notes)
	assert.Equal(t, fx.branchA, *view.BranchID)
	assert.Equal(t, []string{"s1"}, fx.fees.invalidated)

	view, err = fx.svc.AddItem(ctx, "s1", AddItemInput{Type: enums.ItemTypeOffer, CatalogID: fx.combo})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	require.NotNil(t, view.Items[1].OfferID)
	assert.Equal(t, fx.combo, *view.Items[1].OfferID)
	assert.Equal(t, 1, view.Items[1].Quantity)
}

func TestServiceAddItemFromOtherBranchNeedsConfirmation(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.AddItem(ctx, "s1", AddItemInput{Type: enums.ItemTypeProduct, CatalogID: fx.burger, Quantity: 1})
	require.NoError(t, err)

	_, err = fx.svc.AddItem(ctx, "s1", AddItemInput{Type: enums.ItemTypeProduct, CatalogID: fx.pizza, Quantity: 1})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBranchSwitch, typed.Code())
	assert.Equal(t, string(i18n.MsgBranchSwitchConfirm), typed.Key())
	assert.Len(t, fx.store.carts["s1"].Items, 1)
}

func TestServiceSelectBranch(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.AddItem(ctx, "s1", AddItemInput{Type: enums.ItemTypeProduct, CatalogID: fx.burger, Quantity: 1})
	require.NoError(t, err)

	_, err = fx.svc.SelectBranch(ctx, "s1", fx.branchB, false)
	assert.Equal(t, pkgerrors.CodeBranchSwitch, pkgerrors.As(err).Code())
	assert.Equal(t, fx.branchA, *fx.store.carts["s1"].BranchID)

	view, err := fx.svc.SelectBranch(ctx, "s1", fx.branchB, true)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, fx.branchB, *view.BranchID)

	invalidations := len(fx.fees.invalidated)
	view, err = fx.svc.SelectBranch(ctx, "s1", fx.branchB, false)
	require.NoError(t, err)
	assert.Equal(t, fx.branchB, *view.BranchID)
	assert.Len(t, fx.fees.invalidated, invalidations, "reselecting the cart branch changes nothing")

	fx.quoter.inactive[fx.branchA] = true
	_, err = fx.svc.SelectBranch(ctx, "s1", fx.branchA, true)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestServiceUpdateAndRemove(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	view, err := fx.svc.AddItem(ctx, "s1", AddItemInput{Type: enums.ItemTypeProduct, CatalogID: fx.burger, Quantity: 2})
	require.NoError(t, err)
	lineID := view.Items[0].ID

	view, err = fx.svc.UpdateQuantity(ctx, "s1", lineID, 3)
	require.NoError(t, err)
	assert.True(t, view.TotalPrice.Equal(decimal.NewFromInt(150)))

	_, err = fx.svc.UpdateQuantity(ctx, "s1", "missing", 1)
	assert.Equal(t, string(i18n.MsgItemNotInCart), pkgerrors.As(err).Key())

	view, err = fx.svc.RemoveItem(ctx, "s1", lineID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Len(t, fx.fees.invalidated, 3)
}

func TestServiceFailuresSurfaceTyped(t *testing.T) {
	fx := newServiceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Get(ctx, " ")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	fx.store.saveErr = errors.New("redis down")
	_, err = fx.svc.Clear(ctx, "s1")
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Empty(t, fx.fees.invalidated)
}

func TestServiceFeeInvalidationFailureDoesNotFailMutation(t *testing.T) {
	fx := newServiceFixture(t)
	fx.fees.err = errors.New("redis down")

	view, err := fx.svc.AddItem(context.Background(), "s1", AddItemInput{Type: enums.ItemTypeProduct, CatalogID: fx.burger})
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(nil, &stubQuoter{}, &stubFees{}, nil)
	assert.Error(t, err)
	_, err = NewService(&memoryStore{}, nil, &stubFees{}, nil)
	assert.Error(t, err)
	_, err = NewService(&memoryStore{}, &stubQuoter{}, nil, nil)
	assert.Error(t, err)
}

func TestServiceConcurrentAddsKeepEveryLine(t *testing.T) {
	fx := newServiceFixture(t)
	kv := newMemoryKV()
	store, err := NewRedisStore(kv, time.Hour, nil)
	require.NoError(t, err)
	svc, err := NewService(store, fx.quoter, fx.fees, nil)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{fx.burger, fx.combo} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			typ := enums.ItemTypeProduct
			if id == fx.combo {
				typ = enums.ItemTypeOffer
			}
			_, errs[i] = svc.AddItem(ctx, "s1", AddItemInput{Type: typ, CatalogID: id, Quantity: 1})
		}(i, id)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	view, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
	assert.True(t, view.TotalPrice.Equal(decimal.RequireFromString("249.99")))
}

func TestServiceContendedCartIsConflict(t *testing.T) {
	fx := newServiceFixture(t)
	kv := newMemoryKV()
	kv.reject = true
	store, err := NewRedisStore(kv, time.Hour, nil)
	require.NoError(t, err)
	svc, err := NewService(store, fx.quoter, fx.fees, nil)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), "s1", AddItemInput{Type: enums.ItemTypeProduct, CatalogID: fx.burger})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.Empty(t, fx.fees.invalidated)
}
