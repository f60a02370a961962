// Package redis contains the expiring session store built on Redis.
package redis

import (
	"context"
	"log/slog"
	"time"

	"portal/config"
	"portal/internal/domain/lifecycle"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryInterval  = time.Second
	defaultConnectTimeout = 5 * time.Second
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New creates the Redis client used by the session store.
func New(params Params) (*redis.Client, error) {
	if params.Config.Redis == nil {
		return nil, errors.New("redis configuration is missing")
	}

	client, err := connect(context.Background(), params.Config.Redis)
	if err != nil {
		return nil, err
	}

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping Redis")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}

// connect establishes the connection, retrying a configured number of times
// before giving up. Startup waits for the store because authentication has no
// degraded mode without it.
func connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse Redis connection URL")
	}

	var lastErr error
	for range attempts {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		} else {
			lastErr = err
		}

		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "gave up connecting to Redis")
		case <-time.After(interval):
		}
	}

	return nil, errors.Wrap(lastErr, "failed to connect to Redis")
}
