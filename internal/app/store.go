package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	"shopflow-tracking/internal/config"
	"shopflow-tracking/internal/logx"
	"shopflow-tracking/internal/repository/memory"
	mongorepo "shopflow-tracking/internal/repository/mongo"
	"shopflow-tracking/internal/repository/postgres"
	"shopflow-tracking/internal/repository/sqlite"
	"shopflow-tracking/internal/service/tracking"
)

const (
	storeRetries    = 10
	storeRetryDelay = time.Second
)

// Store is the selected order repository and the cleanup for its connection.
type Store struct {
	Backend string
	Repo    tracking.OrderRepository
	closeFn func() error
}

// Close releases the backend connection.
func (s *Store) Close() error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

type storeOpener func(ctx context.Context, logger logx.Logger, cfg *config.Config) (*Store, error)

func openStore(ctx context.Context, logger logx.Logger, cfg *config.Config) (*Store, error) {
	backend := cfg.Store.Backend
	switch backend {
	case config.BackendMemory, "":
		repo := memory.NewOrderRepository()
		return &Store{Backend: config.BackendMemory, Repo: repo, closeFn: repo.Close}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Store.SQLitePath, err)
		}
		repo := sqlite.NewOrderRepository(db)
		return &Store{Backend: backend, Repo: repo, closeFn: repo.Close}, nil

	case config.BackendPostgres:
		pool, err := connectWithRetry(ctx, logger, backend, func(ctx context.Context) (*pgxpool.Pool, error) {
			return newPool(ctx, cfg.DB.DSN())
		}, storeRetries, storeRetryDelay)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{
			Backend: backend,
			Repo:    postgres.NewOrderRepository(pool),
			closeFn: func() error { pool.Close(); return nil },
		}, nil

	case config.BackendMongo:
		client, err := connectWithRetry(ctx, logger, backend, func(ctx context.Context) (*mongo.Client, error) {
			return mongorepo.Connect(ctx, cfg.Store.MongoURI)
		}, storeRetries, storeRetryDelay)
		if err != nil {
			return nil, err
		}
		repo, err := mongorepo.NewOrderRepository(ctx, client, cfg.Store.MongoDB)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &Store{Backend: backend, Repo: repo, closeFn: repo.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
