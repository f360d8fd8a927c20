package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	resetPrefix = "password_reset:"

	// ResetTokenTTL bounds how long a password reset link stays valid.
	ResetTokenTTL = time.Hour
)

// ResetTokens issues and checks one-shot password reset tokens.
type ResetTokens struct {
	client *redis.Client
}

func NewResetTokens(client *redis.Client) *ResetTokens {
	return &ResetTokens{client: client}
}

// Issue creates an opaque token bound to the user id.
func (r *ResetTokens) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	err := r.client.Set(ctx, resetPrefix+token, userID.String(), ResetTokenTTL).Err()
	if err != nil {
		return "", err
	}
	return token, nil
}

// Consume validates and destroys the token, returning the bound user
// id. A token can be used once.
func (r *ResetTokens) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.client.GetDel(ctx, resetPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalidToken
	}
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
