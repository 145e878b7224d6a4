package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-storefront/internal/catalog"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type catalogQuoter interface {
	Quote(ctx context.Context, req catalog.QuoteRequest) (*catalog.Quote, error)
	EnsureActiveBranch(ctx context.Context, id uuid.UUID) error
}

// FeeInvalidator drops the delivery fee computed for a session.
type FeeInvalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

// AddItemInput identifies the menu selection to add; prices come from the catalog.
type AddItemInput struct {
	Type      enums.ItemType
	CatalogID uuid.UUID
	Size      string
	Variants  []string
	Quantity  int
	Notes     string
}

// View is the cart plus its folds as returned to clients.
type View struct {
	Items      []Item          `json:"items"`
	BranchID   *uuid.UUID      `json:"branch_id,omitempty"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
}

// NewView folds c into its client representation.
func NewView(c Cart) *View {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return &View{Items: items, BranchID: c.BranchID, TotalPrice: TotalPrice(c), TotalItems: TotalItems(c)}
}

// Service owns the session cart.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	Load(ctx context.Context, sessionID string) (Cart, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, qty int) (*View, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (*View, error)
	Clear(ctx context.Context, sessionID string) (*View, error)
	SelectBranch(ctx context.Context, sessionID string, branchID uuid.UUID, confirm bool) (*View, error)
}

type service struct {
	store   Store
	catalog catalogQuoter
	fees    FeeInvalidator
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the cart service.
func NewService(store Store, menu catalogQuoter, fees FeeInvalidator, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if menu == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if fees == nil {
		return nil, fmt.Errorf("fee invalidator required")
	}
	return &service{store: store, catalog: menu, fees: fees, logg: logg, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	c, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewView(c), nil
}

func (s *service) Load(ctx context.Context, sessionID string) (Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error) {
	if input.Quantity <= 0 {
		input.Quantity = 1
	}
	quote, err := s.catalog.Quote(ctx, catalog.QuoteRequest{
		Type:      input.Type,
		CatalogID: input.CatalogID,
		Size:      input.Size,
		Variants:  input.Variants,
	})
	if err != nil {
		return nil, err
	}

	item := Item{
		CatalogID:  quote.CatalogID,
		Type:       quote.Type,
		TitleAR:    quote.TitleAR,
		TitleEN:    quote.TitleEN,
		ImageURL:   quote.ImageURL,
		Quantity:   input.Quantity,
		TotalPrice: quote.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))),
		Size:       quote.Size,
		SizeData:   quote.SizeData,
		Variants:   quote.Variants,
		Notes:      strings.TrimSpace(input.Notes),
		BranchID:   quote.BranchID,
	}
	if quote.Type == enums.ItemTypeOffer {
		offerID := quote.CatalogID
		item.OfferID = &offerID
	}
	return s.mutate(ctx, sessionID, func(current Cart) (Cart, error) {
		if !current.IsEmpty() && current.BranchID != nil && *current.BranchID != quote.BranchID {
			return Cart{}, branchSwitchError(*current.BranchID, quote.BranchID)
		}
		return Add(current, item, s.now()), nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, itemID string, qty int) (*View, error) {
	return s.mutate(ctx, sessionID, func(current Cart) (Cart, error) {
		next, err := UpdateQuantity(current, itemID, qty)
		if err != nil {
			return Cart{}, mapCartError(err)
		}
		return next, nil
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, itemID string) (*View, error) {
	return s.mutate(ctx, sessionID, func(current Cart) (Cart, error) {
		next, err := Remove(current, itemID)
		if err != nil {
			return Cart{}, mapCartError(err)
		}
		return next, nil
	})
}

func (s *service) Clear(ctx context.Context, sessionID string) (*View, error) {
	return s.mutate(ctx, sessionID, func(current Cart) (Cart, error) {
		return Clear(current), nil
	})
}

// SelectBranch applies the branch guard. A required confirmation surfaces as
// CodeBranchSwitch and leaves the stored cart untouched.
func (s *service) SelectBranch(ctx context.Context, sessionID string, branchID uuid.UUID, confirm bool) (*View, error) {
	if err := s.catalog.EnsureActiveBranch(ctx, branchID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(current Cart) (Cart, error) {
		next, outcome := SelectBranch(current, branchID, confirm)
		switch outcome {
		case BranchUnchanged:
			return Cart{}, errUnchanged
		case BranchConfirmationRequired:
			from := uuid.Nil
			if current.BranchID != nil {
				from = *current.BranchID
			}
			return Cart{}, branchSwitchError(from, branchID)
		}
		return next, nil
	})
}

// mutate runs fn against the stored cart through a conditional save and drops
// the session's delivery fee when the cart changed.
func (s *service) mutate(ctx context.Context, sessionID string, fn func(Cart) (Cart, error)) (*View, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	changed := false
	next, err := s.store.Update(ctx, sessionID, func(current Cart) (Cart, error) {
		updated, err := fn(current)
		changed = err == nil
		return updated, err
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrContended):
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "save cart")
	case pkgerrors.As(err) != nil:
		return nil, err
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	if !changed {
		return NewView(next), nil
	}
	if err := s.fees.Invalidate(ctx, sessionID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "cart.fee_invalidate_failed", err)
	}
	return NewView(next), nil
}

func branchSwitchError(from, to uuid.UUID) error {
	return i18n.Error(pkgerrors.CodeBranchSwitch, i18n.MsgBranchSwitchConfirm).
		WithDetails(map[string]any{
			"cart_branch_id":      from.String(),
			"requested_branch_id": to.String(),
		})
}

func mapCartError(err error) error {
	if errors.Is(err, ErrItemNotFound) {
		return i18n.Wrap(pkgerrors.CodeNotFound, err, i18n.MsgItemNotInCart)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart")
}
