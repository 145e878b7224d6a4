package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ComboOffer is a bundled menu deal sold at a fixed price.
type ComboOffer struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BranchID      uuid.UUID       `gorm:"column:branch_id;type:uuid;not null;index"`
	TitleAR       string          `gorm:"column:title_ar;not null"`
	TitleEN       string          `gorm:"column:title_en;not null"`
	DescriptionAR *string         `gorm:"column:description_ar"`
	DescriptionEN *string         `gorm:"column:description_en"`
	ImageURL      *string         `gorm:"column:image_url"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	StartsAt      *time.Time      `gorm:"column:starts_at"`
	EndsAt        *time.Time      `gorm:"column:ends_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (o *ComboOffer) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// AvailableAt reports whether the offer can be sold at now.
func (o ComboOffer) AvailableAt(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if o.StartsAt != nil && now.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && !now.Before(*o.EndsAt) {
		return false
	}
	return true
}
