package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message to the team chat log. Messages are never
// updated or deleted.
func (r *MessageRepository) Create(ctx context.Context, msg *model.TeamMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByTeam returns the chat log in creation order.
func (r *MessageRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.TeamMessage, error) {
	var messages []model.TeamMessage
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("team_id = ?", teamID).
		Order("created_at").
		Find(&messages).Error
	return messages, err
}
