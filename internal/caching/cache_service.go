package caching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobtracker/internal/observability/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// counterStore is the part of the redis client the limiter uses.
type counterStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedisClient accepts either host:port or a redis:// URL.
func NewRedisClient(addr, password string, db int, logger *zap.Logger) *redis.Client {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed on initialization", zap.String("address", parsedAddr), zap.Error(err))
	} else {
		logger.Debug("redis connection established", zap.String("address", parsedAddr))
	}
	return client
}

// LoginLimiter counts failed logins per key inside a fixed window.
type LoginLimiter struct {
	store       counterStore
	maxAttempts int
	window      time.Duration
}

func NewLoginLimiter(store counterStore, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{store: store, maxAttempts: maxAttempts, window: window}
}

func (l *LoginLimiter) key(key string) string {
	return fmt.Sprintf("jobtracker:login_failures:%s", key)
}

// Allow reports whether another attempt may be made for key.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.maxAttempts <= 0 {
		return true, nil
	}
	count, err := l.store.Get(ctx, l.key(key)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return true, err
	}
	if count >= l.maxAttempts {
		metrics.IncrementLoginThrottled()
		return false, nil
	}
	return true, nil
}

// RecordFailure bumps the counter. The window starts at the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	cacheKey := l.key(key)
	count, err := l.store.Incr(ctx, cacheKey).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return l.store.Expire(ctx, cacheKey, l.window).Err()
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	return l.store.Del(ctx, l.key(key)).Err()
}
