package model

import (
	"time"

	"github.com/google/uuid"
)

// Team is the aggregation root for team tasks, projects and chat
// messages. The lead is always treated as a member even without a row
// in team_members. InviteCode is generated once and never changes.
type Team struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `gorm:"not null"`
	Description string
	LeadID      uuid.UUID `gorm:"type:uuid;not null"`
	InviteCode  string    `gorm:"uniqueIndex;not null"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	Lead    User   `gorm:"foreignKey:LeadID"`
	Members []User `gorm:"many2many:team_members"`
}

// TeamMessage is a single entry in the team chat log. Append-only,
// immutable once created.
type TeamMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Team   Team `gorm:"foreignKey:TeamID"`
	Author User `gorm:"foreignKey:AuthorID"`
}

// MaxMessageLength bounds team chat messages.
const MaxMessageLength = 2000

func (t *Team) OwnedBy() uuid.UUID {
	return t.LeadID
}
