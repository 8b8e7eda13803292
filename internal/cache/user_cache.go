package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"learning_webapp/internal/domain"
	"learning_webapp/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "user:tg:"

// UserCache keeps serialized profiles in Redis. A nil client turns every
// call into a no-op so the API keeps working without Redis.
type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect returns a cache backed by addr. An empty addr or a failed ping
// yields a disabled cache, the same fail-open policy the service applies to
// every Redis outage.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) *UserCache {
	if addr == "" {
		logger.Info("redis not configured, profile cache disabled")
		return New(nil, ttl)
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed, profile cache disabled", "addr", addr, "error", err)
		_ = client.Close()
		return New(nil, ttl)
	}
	logger.Info("redis connected", "addr", addr)
	return New(client, ttl)
}

func New(client *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{client: client, ttl: ttl}
}

func (c *UserCache) Enabled() bool {
	return c != nil && c.client != nil
}

func key(telegramID int64) string {
	return keyPrefix + strconv.FormatInt(telegramID, 10)
}

// Get returns the cached profile, or false on a miss or any Redis error.
func (c *UserCache) Get(ctx context.Context, telegramID int64) (*domain.User, bool) {
	if !c.Enabled() {
		return nil, false
	}
	b, err := c.client.Get(ctx, key(telegramID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("cache read failed", "telegram_id", telegramID, "error", err)
		}
		return nil, false
	}
	var u domain.User
	if err := json.Unmarshal(b, &u); err != nil {
		logger.Warn("cache entry corrupt", "telegram_id", telegramID, "error", err)
		return nil, false
	}
	return &u, true
}

func (c *UserCache) Set(ctx context.Context, u *domain.User) {
	if !c.Enabled() || u == nil {
		return
	}
	b, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(u.TelegramID), b, c.ttl).Err(); err != nil {
		logger.Warn("cache write failed", "telegram_id", u.TelegramID, "error", err)
	}
}

func (c *UserCache) Delete(ctx context.Context, telegramID int64) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, key(telegramID)).Err(); err != nil {
		logger.Warn("cache delete failed", "telegram_id", telegramID, "error", err)
	}
}

func (c *UserCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
