package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dompet/internal/amqp"
	"dompet/internal/store/memory"
	"dompet/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend. An unreachable broker is
// logged and the backend continues without it.
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
		result = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueues)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without broker", "error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"inbound_queue", config.AMQPQueues.Inbound,
				"outbound_queue", config.AMQPQueues.Outbound,
				"ledger_queue", config.AMQPQueues.Ledger)
			result.AMQP = client
			storeCleanup := result.Cleanup
			result.Cleanup = func() error {
				var errs []error
				if storeCleanup != nil {
					errs = append(errs, storeCleanup())
				}
				errs = append(errs, client.Close())
				return errors.Join(errs...)
			}
		}
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Store:   repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{
		Store: memory.NewFromFiles(dataDir),
		Ready: func(context.Context) error { return nil },
	}
}
