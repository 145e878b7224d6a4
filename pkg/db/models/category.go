package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups menu products.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	NameAR    string    `gorm:"column:name_ar;not null"`
	NameEN    string    `gorm:"column:name_en;not null"`
	ImageURL  *string   `gorm:"column:image_url"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
