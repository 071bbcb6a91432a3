package app

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/shelf/internal/clipboard"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/debounce"
	"github.com/MrSnakeDoc/shelf/internal/discovery"
	"github.com/MrSnakeDoc/shelf/internal/dispatch"
	"github.com/MrSnakeDoc/shelf/internal/export"
	"github.com/MrSnakeDoc/shelf/internal/fetcher"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/redis"
	"github.com/MrSnakeDoc/shelf/internal/store"
	"github.com/MrSnakeDoc/shelf/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
	"github.com/MrSnakeDoc/shelf/internal/store/sqlite"
)

// Core is the set of components shared by the server and the CLI.
type Core struct {
	Backend    store.Backend
	Items      *store.Repository
	Dispatcher *dispatch.Dispatcher
	Batch      *discovery.Batch
	Exports    *export.Engine
	Renames    *debounce.Debouncer
	Clipboard  clipboard.Sink
}

// OpenBackend connects the configured store backend.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil

	case config.BackendSQLite, "":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite store opened", logger.String("path", s.Path()))
		return s, nil

	case config.BackendMemory:
		log.Warn("using in-memory store, items are lost on restart")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// NewCore wires the item store, fetch pipeline, export engine and rename
// debouncer on top of backend. sink receives export text.
func NewCore(cfg *config.Config, log logger.Logger, backend store.Backend, sink clipboard.Sink) (*Core, error) {
	items := store.New(backend, log.Named("store"), store.WithListingBaseURL(cfg.ListingBaseURL))

	direct, err := fetcher.NewClient(fetcher.ClientOptions{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("direct fetcher: %w", err)
	}
	var fallback fetcher.Fetcher
	if cfg.FallbackProxy != "" {
		proxied, err := fetcher.NewClient(fetcher.ClientOptions{
			Timeout:   cfg.FallbackTimeout,
			UserAgent: cfg.UserAgent,
			ProxyURL:  cfg.FallbackProxy,
		})
		if err != nil {
			return nil, fmt.Errorf("fallback fetcher: %w", err)
		}
		fallback = proxied
	}
	policy := fetcher.NewPolicy(direct, fallback, cfg.FallbackTimeout, log.Named("fetcher"))

	dispatcher := dispatch.New(dispatch.Config{
		MaxConcurrent:        cfg.FetchMaxConcurrent,
		DelayBetweenRequests: cfg.FetchDelay,
	}, log.Named("dispatch"))

	renames := debounce.New(cfg.RenameDebounce, func(ctx context.Context, id, name string) error {
		return items.Rename(ctx, id, name)
	}, log.Named("renames"))

	return &Core{
		Backend:    backend,
		Items:      items,
		Dispatcher: dispatcher,
		Batch:      discovery.NewBatch(items, dispatcher, policy, cfg.ItemDelay, log.Named("batch")),
		Exports:    export.New(items, sink, export.Options{OnlyNewKept: cfg.ExportNewOnly}, log.Named("export")),
		Renames:    renames,
		Clipboard:  sink,
	}, nil
}

// NewSink picks the export sink for the configured clipboard mode.
// System mode falls back to an in-memory buffer when no clipboard utility
// is installed.
func NewSink(cfg *config.Config, log logger.Logger) clipboard.Sink {
	if cfg.ClipboardMode != config.ClipboardSystem {
		return clipboard.NewBuffer()
	}
	sys, err := clipboard.NewSystem()
	if err != nil {
		log.Warn("system clipboard unavailable, export text is only returned to the caller",
			logger.Error(err))
		return clipboard.NewBuffer()
	}
	return sys
}

// Close flushes pending renames and closes the backend.
func (c *Core) Close(ctx context.Context) error {
	c.Renames.Flush(ctx)
	return c.Backend.Close()
}
