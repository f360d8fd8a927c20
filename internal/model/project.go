package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProjectPlanning  = "planning"
	ProjectActive    = "active"
	ProjectOnHold    = "on_hold"
	ProjectCompleted = "completed"
	ProjectCancelled = "cancelled"
)

// Project always belongs to a team; there are no personal projects.
// Tasks attached to a project must belong to the same team.
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `gorm:"not null"`
	Description string
	TeamID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Status      string    `gorm:"not null;default:'planning'"`
	StartDate   *time.Time
	Deadline    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Team  Team   `gorm:"foreignKey:TeamID"`
	Tasks []Task `gorm:"many2many:project_tasks"`
}

func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// Start records the start instant and forces the project active.
// Calling it again simply overwrites the start date.
func (p *Project) Start(now time.Time) {
	p.StartDate = &now
	p.Status = ProjectActive
}

// Progress is the completed share of attached tasks in whole percent,
// truncated. An empty project has progress 0.
func (p *Project) Progress() int {
	if len(p.Tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range p.Tasks {
		if t.IsCompleted {
			done++
		}
	}
	return done * 100 / len(p.Tasks)
}
