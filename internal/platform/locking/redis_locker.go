// Package locking provides the redis-backed per-document lock used to
// serialize fiscal lifecycle work across API workers and the retry sweeper.
package locking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/quipuware/quipu_backend/internal/apperrors"
	"github.com/quipuware/quipu_backend/internal/core/ports/external"
)

// releaseScript deletes the lock only when the caller still owns it, so a
// worker that outlived its TTL cannot release somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements external.DocumentLocker with SET NX plus a unique
// owner token. Locks expire after ttl as a crash backstop; normal flow
// releases explicitly.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker on the given client.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

var _ external.DocumentLocker = (*RedisLocker)(nil)

// Acquire takes the lock for key, returning apperrors.ErrFiscalBusy when
// another worker holds it.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrFiscalBusy, key)
	}

	release := func() {
		// Release is best effort: the TTL cleans up after a lost connection.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
