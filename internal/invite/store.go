package invite

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultTTL bounds how long a pending invite survives the
// register/login detour.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "pending_invite:"

// Store keeps at most one pending invite code per anonymous browser
// session. It is backed by redis so redemption works regardless of
// which instance handles the post-auth request.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Set stores the raw invite code for the session, overwriting any
// earlier pending invite.
func (s *Store) Set(ctx context.Context, sessionID, code string) error {
	return s.client.Set(ctx, keyPrefix+sessionID, strings.ToLower(code), s.ttl).Err()
}

// Peek returns the pending code without consuming it, or "" when none
// is stored.
func (s *Store) Peek(ctx context.Context, sessionID string) (string, error) {
	code, err := s.client.Get(ctx, keyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return code, err
}

// Consume atomically fetches and deletes the pending code. The single
// GETDEL round trip is what makes redemption exactly-once even when a
// client retries the post-auth request.
func (s *Store) Consume(ctx context.Context, sessionID string) (string, error) {
	code, err := s.client.GetDel(ctx, keyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return code, err
}
