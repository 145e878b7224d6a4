package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile carries the shopper contact data the checkout gate relies on.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  *string   `gorm:"column:full_name"`
	Email     *string   `gorm:"column:email"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AdminProfile marks a back-office account; such accounts may not shop.
type AdminProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Role      string    `gorm:"column:role;not null;default:'admin'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
