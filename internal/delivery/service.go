package delivery

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/angelmondragon/restaurant-storefront/internal/address"
	"github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/pkg/backend"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/angelmondragon/restaurant-storefront/pkg/metrics"
)

const (
	feePath        = "/delivery/calculate-fee"
	outOfRangeCode = "out_of_range"
)

type addressSource interface {
	Selected(ctx context.Context, sessionID, token string) (*address.Address, error)
}

type cartSource interface {
	Load(ctx context.Context, sessionID string) (cart.Cart, error)
}

type backendDoer interface {
	Do(ctx context.Context, method, path, token string, body, out any) error
}

// Snapshot is the current address and cart of a session with the fee inputs derived from them.
type Snapshot struct {
	Address     *address.Address
	Cart        cart.Cart
	Inputs      Inputs
	Fingerprint string
}

// NewSnapshot derives fee inputs from addr and c.
func NewSnapshot(addr *address.Address, c cart.Cart) *Snapshot {
	in := Inputs{BranchID: c.BranchID, CartEmpty: c.IsEmpty()}
	if addr != nil {
		in.AddressID = addr.ID
		in.Latitude = addr.Latitude
		in.Longitude = addr.Longitude
	}
	return &Snapshot{Address: addr, Cart: c, Inputs: in, Fingerprint: Fingerprint(in)}
}

type feeRequest struct {
	UserLatitude  float64 `json:"user_latitude"`
	UserLongitude float64 `json:"user_longitude"`
	BranchID      string  `json:"branch_id"`
}

// Service resolves and caches the delivery fee of a session.
type Service interface {
	Snapshot(ctx context.Context, sessionID, token string) (*Snapshot, error)
	Resolve(ctx context.Context, sessionID, token string) (*State, error)
	Ensure(ctx context.Context, sessionID, token string, snap *Snapshot) (*State, error)
	Invalidate(ctx context.Context, sessionID string) error
}

type service struct {
	store     StateStore
	addresses addressSource
	carts     cartSource
	backend   backendDoer
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the resolver.
func NewService(store StateStore, addresses addressSource, carts cartSource, api backendDoer, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("delivery state store required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address source required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &service{store: store, addresses: addresses, carts: carts, backend: api, metrics: m, logg: logg, now: time.Now}, nil
}

func (s *service) Snapshot(ctx context.Context, sessionID, token string) (*Snapshot, error) {
	addr, err := s.addresses.Selected(ctx, sessionID, token)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(addr, c), nil
}

// Resolve recomputes the fee from the current address and cart.
func (s *service) Resolve(ctx context.Context, sessionID, token string) (*State, error) {
	snap, err := s.Snapshot(ctx, sessionID, token)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, sessionID, token, snap)
}

// Ensure returns the stored state when it was computed from snap, and recomputes otherwise.
func (s *service) Ensure(ctx context.Context, sessionID, token string, snap *Snapshot) (*State, error) {
	if snap == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "delivery snapshot required")
	}
	stored, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery state")
	}
	if stored.FreshFor(snap.Fingerprint) {
		return stored, nil
	}
	return s.resolve(ctx, sessionID, token, snap)
}

func (s *service) Invalidate(ctx context.Context, sessionID string) error {
	return s.store.Invalidate(ctx, sessionID)
}

func (s *service) resolve(ctx context.Context, sessionID, token string, snap *Snapshot) (*State, error) {
	gen, err := s.store.NextGeneration(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue delivery generation")
	}
	state := State{
		Generation:  gen,
		Fingerprint: snap.Fingerprint,
		AddressID:   snap.Inputs.AddressID,
		UpdatedAt:   s.now().UTC(),
	}

	outcome := metrics.FeeResolved
	if key := CheckPreconditions(snap.Inputs, snap.Address != nil); key != "" {
		state.ErrorKey = key
		outcome = metrics.FeePrecondition
	} else {
		result, key := s.requestFee(ctx, token, snap.Inputs)
		state.Result = result
		state.ErrorKey = key
		switch key {
		case "":
		case i18n.MsgOutOfRange:
			outcome = metrics.FeeOutOfRange
		default:
			outcome = metrics.FeeError
		}
	}

	committed, err := s.store.Commit(ctx, sessionID, state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit delivery state")
	}
	if !committed {
		s.metrics.IncFeeResolution(metrics.FeeSuperseded)
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "generation", gen), "delivery.resolution_superseded")
		}
		latest, err := s.store.Load(ctx, sessionID)
		if err == nil && latest != nil {
			return latest, nil
		}
		return &state, nil
	}
	s.metrics.IncFeeResolution(outcome)
	return &state, nil
}

func (s *service) requestFee(ctx context.Context, token string, in Inputs) (*Result, i18n.Key) {
	req := feeRequest{
		UserLatitude:  *in.Latitude,
		UserLongitude: *in.Longitude,
		BranchID:      in.BranchID.String(),
	}
	var result Result
	if err := s.backend.Do(ctx, http.MethodPost, feePath, token, req, &result); err != nil {
		if backend.StatusOf(err) == http.StatusUnprocessableEntity || backend.CodeOf(err) == outOfRangeCode {
			return nil, i18n.MsgOutOfRange
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "delivery.fee_request_failed")
		}
		return nil, i18n.MsgDeliveryFeeFailed
	}
	return &result, ""
}
