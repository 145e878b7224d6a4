package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/db/models"
	"github.com/angelmondragon/restaurant-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-storefront/pkg/errors"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type catalogRepository interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
	FindBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListOffers(ctx context.Context, branchID uuid.UUID, now time.Time) ([]models.ComboOffer, error)
	FindOffer(ctx context.Context, id uuid.UUID) (*models.ComboOffer, error)
}

// QuoteRequest identifies a menu selection to price.
type QuoteRequest struct {
	Type      enums.ItemType
	CatalogID uuid.UUID
	Size      string
	Variants  []string
}

// SizeData snapshots the chosen size at add time.
type SizeData struct {
	Name   string          `json:"name"`
	NameAR string          `json:"name_ar"`
	NameEN string          `json:"name_en"`
	Price  decimal.Decimal `json:"price"`
}

// Quote is the priced snapshot of a selection. Cart items never re-read the catalog after this.
type Quote struct {
	Type      enums.ItemType
	CatalogID uuid.UUID
	BranchID  uuid.UUID
	TitleAR   string
	TitleEN   string
	ImageURL  *string
	UnitPrice decimal.Decimal
	Size      string
	SizeData  *SizeData
	Variants  []string
}

// Service exposes menu reads and pricing.
type Service interface {
	ListBranches(ctx context.Context) ([]BranchDTO, error)
	GetBranch(ctx context.Context, id uuid.UUID) (*BranchDTO, error)
	EnsureActiveBranch(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListOffers(ctx context.Context, branchID uuid.UUID) ([]OfferDTO, error)
	GetOffer(ctx context.Context, id uuid.UUID) (*OfferDTO, error)
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
}

type service struct {
	repo catalogRepository
	now  func() time.Time
}

// NewService builds the catalog service.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListBranches(ctx context.Context) ([]BranchDTO, error) {
	rows, err := s.repo.ListBranches(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list branches")
	}
	out := make([]BranchDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, branchFromModel(row))
	}
	return out, nil
}

func (s *service) GetBranch(ctx context.Context, id uuid.UUID) (*BranchDTO, error) {
	branch, err := s.repo.FindBranch(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "branch")
	}
	if !branch.IsActive {
		return nil, i18n.Error(pkgerrors.CodeNotFound, i18n.MsgBranchUnavailable)
	}
	dto := branchFromModel(*branch)
	return &dto, nil
}

// EnsureActiveBranch fails unless id names an active branch.
func (s *service) EnsureActiveBranch(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return i18n.Error(pkgerrors.CodeValidation, i18n.MsgBranchRequired)
	}
	_, err := s.GetBranch(ctx, id)
	return err
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryFromModel(row))
	}
	return out, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]ProductDTO, error) {
	if filter.BranchID == uuid.Nil {
		return nil, i18n.Error(pkgerrors.CodeValidation, i18n.MsgBranchRequired)
	}
	rows, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, productFromModel(row))
	}
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "product")
	}
	dto := productFromModel(*product)
	return &dto, nil
}

func (s *service) ListOffers(ctx context.Context, branchID uuid.UUID) ([]OfferDTO, error) {
	if branchID == uuid.Nil {
		return nil, i18n.Error(pkgerrors.CodeValidation, i18n.MsgBranchRequired)
	}
	rows, err := s.repo.ListOffers(ctx, branchID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	out := make([]OfferDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, offerFromModel(row))
	}
	return out, nil
}

func (s *service) GetOffer(ctx context.Context, id uuid.UUID) (*OfferDTO, error) {
	offer, err := s.repo.FindOffer(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "offer")
	}
	dto := offerFromModel(*offer)
	return &dto, nil
}

// Quote prices a selection: (size price | base price) + variant prices for products,
// the offer price for offers.
func (s *service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	switch req.Type {
	case enums.ItemTypeProduct:
		product, err := s.repo.FindProduct(ctx, req.CatalogID)
		if err != nil {
			return nil, mapLookupError(err, "product")
		}
		return QuoteProduct(*product, req.Size, req.Variants)
	case enums.ItemTypeOffer:
		offer, err := s.repo.FindOffer(ctx, req.CatalogID)
		if err != nil {
			return nil, mapLookupError(err, "offer")
		}
		return QuoteOffer(*offer, s.now().UTC())
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported item type %q", req.Type))
	}
}

// QuoteProduct prices a product selection without touching storage.
func QuoteProduct(product models.Product, size string, variants []string) (*Quote, error) {
	if !product.IsAvailable {
		return nil, i18n.Error(pkgerrors.CodeStateConflict, i18n.MsgItemUnavailable)
	}

	quote := &Quote{
		Type:      enums.ItemTypeProduct,
		CatalogID: product.ID,
		BranchID:  product.BranchID,
		TitleAR:   product.NameAR,
		TitleEN:   product.NameEN,
		ImageURL:  product.ImageURL,
		UnitPrice: product.BasePrice,
	}

	if name := strings.TrimSpace(size); name != "" {
		var match *models.ProductSize
		for i := range product.Sizes {
			if strings.EqualFold(product.Sizes[i].Name, name) {
				match = &product.Sizes[i]
				break
			}
		}
		if match == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size %q is not offered for this product", name)).
				WithDetails(map[string]any{"size": name})
		}
		quote.Size = match.Name
		quote.SizeData = &SizeData{Name: match.Name, NameAR: match.NameAR, NameEN: match.NameEN, Price: match.Price}
		quote.UnitPrice = match.Price
	}

	if len(variants) > 0 {
		byID := make(map[string]models.ProductType, len(product.Types))
		for _, t := range product.Types {
			byID[t.ID.String()] = t
		}
		seen := map[string]struct{}{}
		for _, raw := range variants {
			id := strings.ToLower(strings.TrimSpace(raw))
			variant, ok := byID[id]
			if !ok {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("variant %q is not offered for this product", raw)).
					WithDetails(map[string]any{"variant": raw})
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			quote.Variants = append(quote.Variants, id)
			quote.UnitPrice = quote.UnitPrice.Add(variant.Price)
		}
		sort.Strings(quote.Variants)
	}
	return quote, nil
}

// QuoteOffer prices an offer that must be sellable at now.
func QuoteOffer(offer models.ComboOffer, now time.Time) (*Quote, error) {
	if !offer.AvailableAt(now) {
		return nil, i18n.Error(pkgerrors.CodeStateConflict, i18n.MsgItemUnavailable)
	}
	return &Quote{
		Type:      enums.ItemTypeOffer,
		CatalogID: offer.ID,
		BranchID:  offer.BranchID,
		TitleAR:   offer.TitleAR,
		TitleEN:   offer.TitleEN,
		ImageURL:  offer.ImageURL,
		UnitPrice: offer.Price,
	}, nil
}

func mapLookupError(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if resource == "branch" {
			return i18n.Wrap(pkgerrors.CodeNotFound, err, i18n.MsgBranchUnavailable)
		}
		return i18n.Wrap(pkgerrors.CodeNotFound, err, i18n.MsgItemUnavailable)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+resource)
}
