package backend

import (
	"context"
	"errors"
	"fmt"

	"budgetwise/internal/amqp"
	"budgetwise/internal/cache"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
	"budgetwise/internal/storage/memory"
	"budgetwise/internal/storage/postgres"
	"budgetwise/internal/storage/redis"
	"budgetwise/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	codec, err := storage.NewCodec(config.Codec, config.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("storage codec: %w", err)
	}

	kv, err := f.openKV(ctx, config)
	if err != nil {
		return nil, err
	}

	opts := []storage.Option{
		storage.WithCodec(codec),
		storage.WithLogger(f.logger),
	}
	if config.Prefix != "" {
		opts = append(opts, storage.WithPrefix(config.Prefix))
	}

	var manager *cache.Manager
	if config.CacheSize > 0 {
		lru := cache.NewLRUCache[[]byte](config.CacheSize, config.CacheTTL)
		opts = append(opts, storage.WithCache(lru))
		if config.CacheTTL > 0 {
			manager = cache.NewManager()
			manager.Register(lru)
			manager.StartCleanup(config.CacheTTL)
		}
	}
	store := storage.NewStore(kv, opts...)

	// Change events are optional; the store works without them.
	var events *amqp.Client
	if config.AMQPURL != "" {
		events, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
			events = nil
		} else {
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized storage backend",
		"type", config.Type,
		"codec", codec.Name(),
		"prefix", store.Prefix(),
		"cache_size", config.CacheSize,
		"amqp_enabled", events != nil)

	return &BackendResult{
		Store:  store,
		Events: events,
		Cleanup: func() error {
			var errs []error
			if manager != nil {
				manager.Stop()
			}
			if events != nil {
				if err := events.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			if err := store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage: %w", err))
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) openKV(ctx context.Context, config Config) (storage.Backend, error) {
	switch config.Type {
	case SQLiteBackend:
		b, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
		}
		f.logger.Debug("Opened SQLite backend", "db_path", config.SQLiteDBPath)
		return b, nil
	case RedisBackend:
		b, err := redis.Open(ctx, config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis backend: %w", err)
		}
		return b, nil
	case PostgresBackend:
		b, err := postgres.Open(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres backend: %w", err)
		}
		return b, nil
	case MemoryBackend:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
