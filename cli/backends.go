package cli

import (
	"context"
	"fmt"

	"altimpact.dev/config"
	"altimpact.dev/progress"
	"altimpact.dev/store"
	"altimpact.dev/workqueue"
)

// buildBackends constructs the Item Store, Progress Registry, and Work
// Queue, either the durable CouchDB/Redis implementations or, with
// --memory, the in-process fakes used for local development. closeFn
// releases any network resources and may be nil.
func buildBackends(ctx context.Context, cfg *config.AppConfig) (store.Store, progress.Registry, workqueue.Queue, func(), error) {
	if useMemory {
		return store.NewMemory(), progress.NewMemoryRegistry(), workqueue.NewMemoryQueue(256), nil, nil
	}

	couch, err := store.NewCouchDB(ctx, store.Config{
		URL:             cfg.Store.URL,
		Database:        cfg.Store.Database,
		Username:        cfg.Store.Username,
		Password:        cfg.Store.Password,
		Timeout:         cfg.Store.Timeout,
		CreateIfMissing: true,
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect to item store: %w", err)
	}

	registry, err := progress.NewRedisRegistry(ctx, progress.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		couch.Close()
		return nil, nil, nil, nil, fmt.Errorf("connect to progress registry: %w", err)
	}

	queue, err := workqueue.NewRedisQueue(ctx, workqueue.RedisQueueConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		couch.Close()
		registry.Close()
		return nil, nil, nil, nil, fmt.Errorf("connect to work queue: %w", err)
	}

	closeFn := func() {
		couch.Close()
		registry.Close()
		queue.Close()
	}
	return couch, registry, queue, closeFn, nil
}
