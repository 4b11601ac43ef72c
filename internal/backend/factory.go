package backend

import (
	"context"
	"errors"
	"fmt"

	"payoff/internal/adapters"
	"payoff/internal/ledger/memory"
	"payoff/internal/log"
	"payoff/internal/storage"
	"payoff/internal/storage/redisstore"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.Preferences == RedisPreferences {
		return f.withRedisPreferences(ctx, config, result)
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.WithComponent(log.ComponentStorage).Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Backend: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromDir(config.SeedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_dir", config.SeedDir)
	return &BackendResult{Backend: store}, nil
}

func (f *DefaultFactory) withRedisPreferences(ctx context.Context, config Config, data *BackendResult) (*BackendResult, error) {
	prefs := redisstore.New(config.RedisAddr, config.RedisDB)
	if err := prefs.Ping(ctx); err != nil {
		prefs.Close()
		if data.Cleanup != nil {
			data.Cleanup()
		}
		return nil, fmt.Errorf("connect to redis at %s: %w", config.RedisAddr, err)
	}

	f.logger.WithComponent(log.ComponentRedis).Info("Preferences stored in Redis", "addr", config.RedisAddr, "db", config.RedisDB)
	return &BackendResult{
		Backend: adapters.NewComposite(data.Backend, prefs),
		Cleanup: func() error {
			var errs []error
			if data.Cleanup != nil {
				errs = append(errs, data.Cleanup())
			}
			errs = append(errs, prefs.Close())
			return errors.Join(errs...)
		},
	}, nil
}
