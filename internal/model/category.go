package model

import (
	"time"

	"github.com/google/uuid"
)

// Category is a personal task label (name + color + icon).
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	Color     string    `gorm:"not null;default:'#2563eb'"`
	Icon      string
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID"`
}

func (c *Category) OwnedBy() uuid.UUID {
	return c.UserID
}
