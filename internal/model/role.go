package model

import (
	"time"

	"github.com/google/uuid"
)

// Role names are a fixed business vocabulary. Flags are seeded once and
// edited only by administrators.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
	RoleViewer  = "viewer"
)

type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description string

	CanCreateTasks bool `gorm:"not null;default:false"`
	CanEditTasks   bool `gorm:"not null;default:false"`
	CanDeleteTasks bool `gorm:"not null;default:false"`
	CanAssignTasks bool `gorm:"not null;default:false"`

	CanCreateProjects bool `gorm:"not null;default:false"`
	CanEditProjects   bool `gorm:"not null;default:false"`
	CanDeleteProjects bool `gorm:"not null;default:false"`

	CanManageTeam    bool `gorm:"not null;default:false"`
	CanInviteMembers bool `gorm:"not null;default:false"`
	CanRemoveMembers bool `gorm:"not null;default:false"`

	CanViewReports    bool `gorm:"not null;default:false"`
	CanManageSettings bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
