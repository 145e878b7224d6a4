package address

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/angelmondragon/restaurant-storefront/pkg/backend"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/angelmondragon/restaurant-storefront/pkg/maps"
)

type backendDoer interface {
	Do(ctx context.Context, method, path, token string, body, out any) error
}

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, req maps.GeocodeRequest) (*maps.GeocodeResult, error)
}

type selectionStore interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Set(ctx context.Context, sessionID, addressID string) error
	Clear(ctx context.Context, sessionID string) error
}

// Input is the editable part of an address.
type Input struct {
	Label     string   `json:"label" validate:"omitempty,max=60"`
	Street    string   `json:"street" validate:"required,max=200"`
	City      string   `json:"city" validate:"required,max=100"`
	Area      string   `json:"area" validate:"omitempty,max=100"`
	Building  string   `json:"building" validate:"omitempty,max=50"`
	Floor     string   `json:"floor" validate:"omitempty,max=20"`
	Apartment string   `json:"apartment" validate:"omitempty,max=20"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	IsDefault bool     `json:"is_default"`
}

func (in Input) address() Address {
	return Address{
		Label:     strings.TrimSpace(in.Label),
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		Area:      strings.TrimSpace(in.Area),
		Building:  strings.TrimSpace(in.Building),
		Floor:     strings.TrimSpace(in.Floor),
		Apartment: strings.TrimSpace(in.Apartment),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		IsDefault: in.IsDefault,
	}
}

// Service proxies the address book to the backend and tracks the checkout selection.
type Service interface {
	List(ctx context.Context, token string) ([]Address, error)
	Create(ctx context.Context, token string, input Input, lang i18n.Lang) (*Address, error)
	Update(ctx context.Context, token, id string, input Input, lang i18n.Lang) (*Address, error)
	Delete(ctx context.Context, sessionID, token, id string) error
	SetDefault(ctx context.Context, token, id string) (*Address, error)
	Select(ctx context.Context, sessionID, token, id string) (*Address, error)
	Selected(ctx context.Context, sessionID, token string) (*Address, error)
}

type service struct {
	backend   backendDoer
	geocoder  Geocoder
	selection selectionStore
	logg      *logger.Logger
}

// NewService wires the address service. geo may be nil when no Maps key is configured;
// addresses without coordinates are then stored as-is.
func NewService(api backendDoer, geo Geocoder, selection selectionStore, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	if selection == nil {
		return nil, fmt.Errorf("selection store required")
	}
	return &service{backend: api, geocoder: geo, selection: selection, logg: logg}, nil
}

func (s *service) List(ctx context.Context, token string) ([]Address, error) {
	var out []Address
	if err := s.backend.Do(ctx, http.MethodGet, "/addresses", token, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Address{}
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, token string, input Input, lang i18n.Lang) (*Address, error) {
	payload, err := s.withCoordinates(ctx, input.address(), lang)
	if err != nil {
		return nil, err
	}
	var created Address
	if err := s.backend.Do(ctx, http.MethodPost, "/addresses", token, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *service) Update(ctx context.Context, token, id string, input Input, lang i18n.Lang) (*Address, error) {
	payload, err := s.withCoordinates(ctx, input.address(), lang)
	if err != nil {
		return nil, err
	}
	var updated Address
	if err := s.backend.Do(ctx, http.MethodPut, addressPath(id), token, payload, &updated); err != nil {
		return nil, mapNotFound(err)
	}
	return &updated, nil
}

func (s *service) Delete(ctx context.Context, sessionID, token, id string) error {
	if err := s.backend.Do(ctx, http.MethodDelete, addressPath(id), token, nil, nil); err != nil {
		return mapNotFound(err)
	}
	selected, err := s.selection.Get(ctx, sessionID)
	if err == nil && selected == id {
		err = s.selection.Clear(ctx, sessionID)
	}
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "address.selection_clear_failed", err)
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, token, id string) (*Address, error) {
	var updated Address
	if err := s.backend.Do(ctx, http.MethodPut, addressPath(id)+"/default", token, nil, &updated); err != nil {
		return nil, mapNotFound(err)
	}
	return &updated, nil
}

// Select stores id as the checkout address of the session.
func (s *service) Select(ctx context.Context, sessionID, token, id string) (*Address, error) {
	list, err := s.List(ctx, token)
	if err != nil {
		return nil, err
	}
	match := findByID(list, id)
	if match == nil {
		return nil, i18n.Error(pkgerrors.CodeNotFound, i18n.MsgAddressNotFound)
	}
	if err := s.selection.Set(ctx, sessionID, id); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store address selection")
	}
	return match, nil
}

// Selected resolves the checkout address: the stored pick when it still exists,
// else the default, else the first address. Nil when the user has none.
func (s *service) Selected(ctx context.Context, sessionID, token string) (*Address, error) {
	list, err := s.List(ctx, token)
	if err != nil {
		return nil, err
	}
	id, err := s.selection.Get(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address selection")
	}
	if id != "" {
		if match := findByID(list, id); match != nil {
			return match, nil
		}
	}
	return SelectDefault(list), nil
}

func (s *service) withCoordinates(ctx context.Context, addr Address, lang i18n.Lang) (Address, error) {
	if addr.HasCoordinates() || s.geocoder == nil {
		return addr, nil
	}
	result, err := s.geocoder.Geocode(ctx, maps.GeocodeRequest{Address: addr.GeocodeQuery(), Language: string(lang)})
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "address.geocode_failed")
		}
		return Address{}, i18n.Wrap(pkgerrors.CodeValidation, err, i18n.MsgGeocodingFailed)
	}
	lat, lng := result.Location.Latitude, result.Location.Longitude
	addr.Latitude = &lat
	addr.Longitude = &lng
	return addr, nil
}

func addressPath(id string) string {
	return "/addresses/" + url.PathEscape(id)
}

func mapNotFound(err error) error {
	if backend.StatusOf(err) == http.StatusNotFound {
		return i18n.Wrap(pkgerrors.CodeNotFound, err, i18n.MsgAddressNotFound)
	}
	return err
}
