package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	RecurrenceNone   = "none"
	RecurrenceDaily  = "daily"
	RecurrenceWeekly = "weekly"
)

// CalendarEvent is owned by a single user and lives outside the team
// graph. Participants are free-form identifiers, not foreign keys.
type CalendarEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Title        string    `gorm:"not null"`
	Description  string
	StartTime    time.Time `gorm:"not null"`
	EndTime      time.Time `gorm:"not null"`
	CalendarID   string    `gorm:"not null;default:'my'"`
	Color        string    `gorm:"not null;default:'#2563eb'"`
	Location     string
	Participants pq.StringArray `gorm:"type:text[]"`
	Recurrence   string         `gorm:"not null;default:'none'"`
	SeriesID     *string
	IsAllDay     bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	User User `gorm:"foreignKey:UserID"`
}

func ValidRecurrence(r string) bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
		return true
	}
	return false
}

func (e *CalendarEvent) OwnedBy() uuid.UUID {
	return e.UserID
}
