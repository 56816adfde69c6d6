package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/annolens/annolens/internal/config"
	"github.com/annolens/annolens/pkg/errors"
)

// NewClient dials a standalone Redis per the application config and verifies
// connectivity before returning.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "connect to redis at "+cfg.Addr)
	}
	return client, nil
}
