package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/internal/model"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := r.db.WithContext(ctx).
		Preload("Responsible").
		Preload("Category").
		Preload("Team").
		First(&task, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// visibleScope restricts a query to the caller's own tasks plus tasks
// of the given visible teams. List endpoints filter silently; they do
// not produce forbidden errors.
func visibleScope(userID uuid.UUID, teamIDs []uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(teamIDs) == 0 {
			return db.Where("responsible_id = ? OR created_by = ?", userID, userID)
		}
		return db.Where(
			"responsible_id = ? OR created_by = ? OR team_id IN ?",
			userID, userID, teamIDs,
		)
	}
}

// ListVisible returns tasks the user may see, newest first.
func (r *TaskRepository) ListVisible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Scopes(visibleScope(userID, teamIDs)).
		Preload("Responsible").
		Preload("Category").
		Preload("Team").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// ListDueOn returns the user's visible tasks due on the given date.
func (r *TaskRepository) ListDueOn(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, day time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Scopes(visibleScope(userID, teamIDs)).
		Where("due_date = ?", day.Format("2006-01-02")).
		Preload("Responsible").
		Preload("Category").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// ListOverdue returns visible tasks past their due date and not completed.
func (r *TaskRepository) ListOverdue(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, today time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Scopes(visibleScope(userID, teamIDs)).
		Where("due_date < ? AND is_completed = ?", today.Format("2006-01-02"), false).
		Preload("Responsible").
		Preload("Category").
		Order("due_date").
		Find(&tasks).Error
	return tasks, err
}

// ListCompleted returns visible completed tasks.
func (r *TaskRepository) ListCompleted(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Scopes(visibleScope(userID, teamIDs)).
		Where("is_completed = ?", true).
		Preload("Responsible").
		Preload("Category").
		Order("completed_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// ListByTeam returns all tasks of one team, used for team progress.
func (r *TaskRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Preload("Responsible").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// SetCompletion applies the complete/reopen transition in one update so
// the three fields can never desync.
func (r *TaskRepository) SetCompletion(ctx context.Context, id uuid.UUID, completed bool, now time.Time) (*model.Task, error) {
	fields := map[string]interface{}{
		"is_completed": completed,
		"status":       model.StatusTodo,
		"completed_at": nil,
		"updated_at":   now,
	}
	if completed {
		fields["status"] = model.StatusDone
		fields["completed_at"] = now
	}
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrTaskNotFound
	}
	return r.GetByID(ctx, id)
}
