package catalog

import (
	"context"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	BranchID   uuid.UUID
	CategoryID *uuid.UUID
}

// Repository reads the menu tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to catalog reads.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBranches returns active branches ordered by English name.
func (r *Repository) ListBranches(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name_en ASC").
		Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// FindBranch loads a branch regardless of its active flag.
func (r *Repository) FindBranch(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

// ListCategories returns active categories in display order.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, name_en ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListProducts returns available products of a branch with sizes and variants preloaded.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("price ASC") }).
		Preload("Types").
		Where("branch_id = ? AND is_available = ?", filter.BranchID, true)
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	var products []models.Product
	if err := query.Order("name_en ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindProduct loads a product with its sizes and variants.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Sizes").
		Preload("Types").
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListOffers returns the offers of a branch that are sellable at now.
func (r *Repository) ListOffers(ctx context.Context, branchID uuid.UUID, now time.Time) ([]models.ComboOffer, error) {
	var offers []models.ComboOffer
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND is_active = ?", branchID, true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at > ?", now).
		Order("created_at DESC").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// FindOffer loads an offer by id.
func (r *Repository) FindOffer(ctx context.Context, id uuid.UUID) (*models.ComboOffer, error) {
	var offer models.ComboOffer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}
