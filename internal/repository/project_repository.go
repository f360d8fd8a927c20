package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/internal/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Team.Lead").
		Preload("Tasks").
		First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByTeams returns projects of the given teams; an empty team set
// yields an empty list since projects are always team-scoped.
func (r *ProjectRepository) ListByTeams(ctx context.Context, teamIDs []uuid.UUID) ([]model.Project, error) {
	if len(teamIDs) == 0 {
		return []model.Project{}, nil
	}
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Preload("Team.Lead").
		Preload("Tasks").
		Where("team_id IN ?", teamIDs).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	result := r.db.WithContext(ctx).Save(project)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// AddTask attaches a task to the project. Attaching twice is a no-op.
func (r *ProjectRepository) AddTask(ctx context.Context, projectID, taskID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO project_tasks (project_id, task_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		projectID, taskID,
	).Error
}

func (r *ProjectRepository) RemoveTask(ctx context.Context, projectID, taskID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(
		"DELETE FROM project_tasks WHERE project_id = ? AND task_id = ?",
		projectID, taskID,
	).Error
}
