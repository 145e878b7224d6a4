package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a physical restaurant location; a cart is bound to exactly one.
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	NameAR    string    `gorm:"column:name_ar;not null"`
	NameEN    string    `gorm:"column:name_en;not null"`
	AddressAR *string   `gorm:"column:address_ar"`
	AddressEN *string   `gorm:"column:address_en"`
	Phone     *string   `gorm:"column:phone"`
	Latitude  *float64  `gorm:"column:latitude"`
	Longitude *float64  `gorm:"column:longitude"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Branch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
