package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/internal/model"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *model.CalendarEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CreateSeries persists a recurrence series in one transaction. A
// failed occurrence rolls back the occurrences already inserted.
func (r *EventRepository) CreateSeries(ctx context.Context, events []*model.CalendarEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, event := range events {
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListByUser returns the owner's events ordered by start time, optionally
// restricted to a [from, to) window.
func (r *EventRepository) ListByUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]model.CalendarEvent, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("end_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("start_time < ?", *to)
	}
	var events []model.CalendarEvent
	err := query.Order("start_time").Find(&events).Error
	return events, err
}

// ListSeries returns every event in a recurrence series of one owner.
func (r *EventRepository) ListSeries(ctx context.Context, userID uuid.UUID, seriesID string) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND series_id = ?", userID, seriesID).
		Order("start_time").
		Find(&events).Error
	return events, err
}

func (r *EventRepository) Update(ctx context.Context, event *model.CalendarEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CalendarEvent{}, "id = ?", id).Error
}
