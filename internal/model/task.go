package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusTodo     = "todo"
	StatusProgress = "progress"
	StatusReview   = "review"
	StatusDone     = "done"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task belongs optionally to a team. A nil TeamID means a personal
// task, in which case the responsible user must be the creator.
type Task struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title         string    `gorm:"not null"`
	Description   string
	TeamID        *uuid.UUID `gorm:"type:uuid;index"`
	ResponsibleID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	CategoryID    *uuid.UUID `gorm:"type:uuid"`
	Status        string     `gorm:"not null;default:'todo'"`
	Priority      string     `gorm:"not null;default:'medium'"`
	DueDate       *time.Time `gorm:"type:date"`
	IsCompleted   bool       `gorm:"not null;default:false"`
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Team        *Team     `gorm:"foreignKey:TeamID"`
	Responsible User      `gorm:"foreignKey:ResponsibleID"`
	Creator     User      `gorm:"foreignKey:CreatedBy"`
	Category    *Category `gorm:"foreignKey:CategoryID"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// PriorityLevel orders priorities for sorting: low < medium < high < urgent.
func (t *Task) PriorityLevel() int {
	switch t.Priority {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// IsOverdue reports whether the due date has passed without completion.
// Due dates are date-only: a task is overdue starting the day after its
// due date.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsCompleted {
		return false
	}
	due := t.DueDate.Truncate(24 * time.Hour)
	today := now.Truncate(24 * time.Hour)
	return due.Before(today)
}

// Complete marks the task done. One atomic transition: status, flag and
// timestamp move together.
func (t *Task) Complete(now time.Time) {
	t.IsCompleted = true
	t.Status = StatusDone
	t.CompletedAt = &now
}

// Reopen is the exact inverse of Complete.
func (t *Task) Reopen() {
	t.IsCompleted = false
	t.Status = StatusTodo
	t.CompletedAt = nil
}

func (t *Task) OwnedBy() uuid.UUID {
	return t.ResponsibleID
}
