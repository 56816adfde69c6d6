package main

import (
	"context"

	redisstore "github.com/annolens/annolens/internal/infrastructure/store/redis"
)

// redisHealthAdapter exposes the annotation store's connectivity to the
// readiness probe.
type redisHealthAdapter struct {
	store *redisstore.Store
}

func (a *redisHealthAdapter) Name() string {
	return "redis"
}

func (a *redisHealthAdapter) Check(ctx context.Context) error {
	return a.store.Ping(ctx)
}
