// Package redis stores the credential record and the widget settings in
// Redis. Every command passes through a circuit breaker hook.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
)

// NewClient parses redisURL (e.g. "redis://localhost:6379"), installs the
// circuit breaker hook and verifies the connection.
func NewClient(ctx context.Context, redisURL string, opts ...HookOption) (*goredis.Client, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(options)
	rdb.AddHook(NewCircuitBreakerHook(opts...))

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", options.Addr, "db", options.DB)
	return rdb, nil
}
