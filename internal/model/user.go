package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	Username       string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	FirstName      string
	LastName       string
	IsActive       bool      `gorm:"not null;default:true"`
	IsSuperuser    bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`

	Profile *UserProfile `gorm:"foreignKey:UserID"`
}

// UserProfile extends User with a role assignment and contact details.
// It is created in the same transaction as the user and never deleted
// on its own.
type UserProfile struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	RoleID *uuid.UUID `gorm:"type:uuid"`
	Avatar string
	Phone  string
	Bio    string

	EmailNotifications bool `gorm:"not null;default:true"`
	PushNotifications  bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Role *Role `gorm:"foreignKey:RoleID"`
}

// RoleName resolves the effective role name, falling back to "member"
// when no role is assigned.
func (p *UserProfile) RoleName() string {
	if p == nil || p.Role == nil {
		return RoleMember
	}
	return p.Role.Name
}
