package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisSessions resolves session tokens to user IDs. Sessions are written by
// the login flow as plain integer values under "session:<token>".
type RedisSessions struct {
	client *redis.Client
}

// NewRedisSessions returns a session lookup backed by the given client.
func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

// Lookup returns the user ID for token. A missing session is reported as
// found == false with a nil error.
func (s *RedisSessions) Lookup(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}

	id, err := s.client.Get(ctx, sessionKeyPrefix+token).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("session lookup: %w", err)
	}
	return id, true, nil
}
