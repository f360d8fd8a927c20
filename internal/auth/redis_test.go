package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"taskflow/internal/auth"
)

func setupRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestDenylist_RevokeAndCheck(t *testing.T) {
	client := setupRedis(t)
	denylist := auth.NewDenylist(client)
	ctx := context.Background()

	jti := uuid.NewString()

	revoked, err := denylist.IsRevoked(ctx, jti)
	assert.NoError(t, err)
	assert.False(t, revoked)

	err = denylist.Revoke(ctx, jti, time.Now().Add(time.Hour))
	assert.NoError(t, err)

	revoked, err = denylist.IsRevoked(ctx, jti)
	assert.NoError(t, err)
	assert.True(t, revoked)
}

func TestDenylist_ExpiredTokenNotStored(t *testing.T) {
	client := setupRedis(t)
	denylist := auth.NewDenylist(client)
	ctx := context.Background()

	jti := uuid.NewString()

	// A token past its expiry needs no denylist entry.
	err := denylist.Revoke(ctx, jti, time.Now().Add(-time.Minute))
	assert.NoError(t, err)

	revoked, err := denylist.IsRevoked(ctx, jti)
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestResetTokens_IssueAndConsume(t *testing.T) {
	client := setupRedis(t)
	resets := auth.NewResetTokens(client)
	ctx := context.Background()

	userID := uuid.New()

	token, err := resets.Issue(ctx, userID)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	got, err := resets.Consume(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, userID, got)

	// One-shot: the second consume fails.
	_, err = resets.Consume(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestResetTokens_UnknownToken(t *testing.T) {
	client := setupRedis(t)
	resets := auth.NewResetTokens(client)

	_, err := resets.Consume(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
