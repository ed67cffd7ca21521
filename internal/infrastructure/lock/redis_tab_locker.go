package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/salonsuite/backend/internal/domain/shared"
)

// RedisTabLocker serializes tab mutations across instances using a Redis
// lease. Suitable for distributed deployments where multiple instances
// mutate the same tab aggregate.
type RedisTabLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisTabLocker creates a new Redis-based tab locker
func NewRedisTabLocker(cfg RedisConfig, ttl time.Duration) (*RedisTabLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisTabLockerWithClient(client, ttl), nil
}

// NewRedisTabLockerWithClient creates a locker with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisTabLockerWithClient(client *redis.Client, ttl time.Duration) *RedisTabLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisTabLocker{
		client:    client,
		keyPrefix: "tab:lock:",
		ttl:       ttl,
	}
}

// Acquire takes the per-tab lease with SETNX. The token stored under the
// key identifies this holder so a stale release cannot drop a lease taken
// by someone else after expiry.
func (l *RedisTabLocker) Acquire(ctx context.Context, tenantID, tabID uuid.UUID) (func(), error) {
	key := fmt.Sprintf("%s%s:%s", l.keyPrefix, tenantID, tabID)
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire tab lock: %w", err)
	}
	if !ok {
		return nil, shared.NewDomainError("CONCURRENCY_CONFLICT", "Tab is being modified by another operation")
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		l.client.Eval(ctx, releaseScript, []string{key}, token)
	}
	return release, nil
}

// releaseScript deletes the lease only when the stored token matches the
// holder's token, so an expired-and-reacquired lease survives a late release
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// Close closes the Redis client
func (l *RedisTabLocker) Close() error {
	return l.client.Close()
}
