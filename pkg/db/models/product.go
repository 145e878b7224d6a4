package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a single menu item served by one branch.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BranchID      uuid.UUID       `gorm:"column:branch_id;type:uuid;not null;index"`
	CategoryID    *uuid.UUID      `gorm:"column:category_id;type:uuid;index"`
	NameAR        string          `gorm:"column:name_ar;not null"`
	NameEN        string          `gorm:"column:name_en;not null"`
	DescriptionAR *string         `gorm:"column:description_ar"`
	DescriptionEN *string         `gorm:"column:description_en"`
	ImageURL      *string         `gorm:"column:image_url"`
	BasePrice     decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	IsAvailable   bool            `gorm:"column:is_available;not null;default:true"`
	Sizes         []ProductSize   `gorm:"foreignKey:ProductID"`
	Types         []ProductType   `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductSize overrides the base price for a named portion (small, large, ...).
type ProductSize struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	NameAR    string          `gorm:"column:name_ar;not null"`
	NameEN    string          `gorm:"column:name_en;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
}

func (s *ProductSize) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ProductType is an optional add-on variant priced on top of the unit price.
type ProductType struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	NameAR    string          `gorm:"column:name_ar;not null"`
	NameEN    string          `gorm:"column:name_en;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null;default:0"`
}

func (t *ProductType) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
