package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("refresh session not found")
)

// RefreshSessionStore tracks which refresh tokens are still usable. A token is
// identified by its jti claim and bound to the user it was issued for.
type RefreshSessionStore struct {
	client *redis.Client
}

func NewRefreshSessionStore(client *redis.Client) *RefreshSessionStore {
	return &RefreshSessionStore{client: client}
}

func sessionKey(jti string) string {
	return fmt.Sprintf("session:refresh:%s", jti)
}

// Save registers a refresh session that expires together with its token.
func (s *RefreshSessionStore) Save(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(jti), userID, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

// rotateScript swaps the old session for the new one only if the old session
// still belongs to the expected user, so a refresh token can be used once.
var rotateScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  redis.call("DEL", KEYS[1])
  redis.call("SET", KEYS[2], ARGV[1], "PX", ARGV[2])
  return 1
else
  return 0
end
`)

// Rotate consumes oldJTI and registers newJTI for the same user.
func (s *RefreshSessionStore) Rotate(ctx context.Context, oldJTI, newJTI, userID string, ttl time.Duration) error {
	res, err := rotateScript.Run(ctx, s.client,
		[]string{sessionKey(oldJTI), sessionKey(newJTI)},
		userID, ttl.Milliseconds(),
	).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("rotate refresh session: %w", err)
	}
	if res != 1 {
		return ErrSessionNotFound
	}
	return nil
}

// Revoke deletes a refresh session. Revoking an unknown session is not an error.
func (s *RefreshSessionStore) Revoke(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, sessionKey(jti)).Err(); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}
