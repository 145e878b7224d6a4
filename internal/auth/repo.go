package auth

import (
	"context"
	"errors"

	"github.com/angelmondragon/restaurant-storefront/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads shopper profiles and the admin allow-list.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindProfile returns the profile for userID, or nil when none exists yet.
func (r *Repository) FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// IsAdmin reports whether userID has an admin_profiles row.
func (r *Repository) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AdminProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}
