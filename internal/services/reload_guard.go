package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
)

const reloadLockKey = "datamart:reload:lock"

// ReloadGuard admits at most one datamart reload at a time. TryAcquire never
// waits: it returns ErrReloadInProgress when another reload holds the guard.
type ReloadGuard interface {
	TryAcquire(ctx context.Context) (release func(), err error)
}

// LocalReloadGuard serializes reloads inside one process.
type LocalReloadGuard struct {
	mu sync.Mutex
}

func NewLocalReloadGuard() *LocalReloadGuard {
	return &LocalReloadGuard{}
}

func (g *LocalReloadGuard) TryAcquire(ctx context.Context) (func(), error) {
	if !g.mu.TryLock() {
		return nil, ErrReloadInProgress
	}
	var once sync.Once
	return func() { once.Do(g.mu.Unlock) }, nil
}

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisReloadGuard extends the local guard across instances with a SET NX
// lock. The TTL bounds how long a crashed instance can block reloads.
type RedisReloadGuard struct {
	local  *LocalReloadGuard
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisReloadGuard(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisReloadGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisReloadGuard{
		local:  NewLocalReloadGuard(),
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (g *RedisReloadGuard) TryAcquire(ctx context.Context) (func(), error) {
	releaseLocal, err := g.local.TryAcquire(ctx)
	if err != nil {
		return nil, err
	}

	token := watermill.NewUUID()
	ok, err := g.client.SetNX(ctx, reloadLockKey, token, g.ttl).Result()
	if err != nil {
		releaseLocal()
		return nil, fmt.Errorf("acquire reload lock: %w", err)
	}
	if !ok {
		releaseLocal()
		return nil, ErrReloadInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, g.client, []string{reloadLockKey}, token).Err(); err != nil {
				g.logger.Warn("Failed to release reload lock", "error", err)
			}
			releaseLocal()
		})
	}, nil
}
