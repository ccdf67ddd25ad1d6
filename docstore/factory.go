package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/go-hclog"
	_ "github.com/lib/pq"
)

const (
	BackendBleve    = "bleve"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	IndexPath   string
	DatabaseURL string

	// RedisURL enables the Redis cache. CacheTTL > 0 without a RedisURL
	// enables the in-process cache instead.
	RedisURL string
	CacheTTL time.Duration
}

// Open builds the configured Store, wrapped in a cache when one is enabled.
func Open(ctx context.Context, opts Options, logger hclog.Logger) (Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	var (
		store Store
		err   error
	)
	switch opts.Backend {
	case BackendBleve, "":
		store, err = NewBleveStore(BleveConfig{IndexPath: opts.IndexPath}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using bleve document store", "path", opts.IndexPath)
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("database url is required for the postgres backend")
		}
		pg, err := sql.Open("postgres", opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.PingContext(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		store = NewPostgresStore(pg, logger)
		logger.Info("using postgres document store")
	default:
		return nil, fmt.Errorf("unknown document store backend %q", opts.Backend)
	}

	ttl := opts.CacheTTL
	switch {
	case opts.RedisURL != "":
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		if ttl <= 0 {
			ttl = time.Minute
		}
		logger.Info("caching documents in redis", "ttl", ttl)
		return NewCachedStore(store, NewRedisCache(redis.NewClient(redisOpts)), ttl, logger), nil
	case ttl > 0:
		logger.Info("caching documents in memory", "ttl", ttl)
		return NewCachedStore(store, NewMemoryCache(ttl), ttl, logger), nil
	}
	return store, nil
}
