package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-formdesk/internal/config"
	"github.com/goliatone/go-formdesk/pkg/draft"
)

// openDraftStore builds the draft backend named by cfg. The returned close
// func releases any connection it opened.
func openDraftStore(ctx context.Context, cfg *config.Config) (draft.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Draft.Backend {
	case config.BackendMemory, "":
		return draft.NewMemoryStore(), noop, nil
	case config.BackendFile:
		store, err := draft.NewFileStore(cfg.Draft.Dir)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		store := draft.NewRedisStore(client,
			draft.WithKeyPrefix(cfg.Redis.Prefix),
			draft.WithTTL(cfg.Redis.TTL),
		)
		return store, client.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown draft backend %q", cfg.Draft.Backend)
	}
}
