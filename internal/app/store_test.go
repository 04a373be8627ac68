package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"shopflow-tracking/internal/config"
	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/logx"
	"shopflow-tracking/internal/repository/memory"
	"shopflow-tracking/internal/repository/sqlite"
)

var fixedNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func TestOpenStore_Memory(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{config.BackendMemory, ""} {
		cfg := &config.Config{Store: config.Store{Backend: backend}}
		s, err := openStore(context.Background(), logx.Nop(), cfg)
		require.NoError(t, err)
		require.Equal(t, config.BackendMemory, s.Backend)
		require.IsType(t, &memory.OrderRepository{}, s.Repo)
		require.NoError(t, s.Close())
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := &config.Config{Store: config.Store{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "orders.db"),
	}}

	s, err := openStore(ctx, logx.Nop(), cfg)
	require.NoError(t, err)
	require.IsType(t, &sqlite.OrderRepository{}, s.Repo)

	o := &domain.Order{
		ID:        "o-1",
		UserID:    "u-1",
		Items:     []domain.OrderItem{{ProductID: "p", Quantity: 1, UnitPrice: decimal.NewFromInt(5)}},
		Total:     decimal.NewFromInt(5),
		Currency:  "BDT",
		Status:    domain.StatusPending,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	require.NoError(t, s.Repo.Insert(ctx, o))
	require.NoError(t, s.Close())

	reopened, err := openStore(ctx, logx.Nop(), cfg)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Repo.Get(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "u-1", got.UserID)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Store: config.Store{Backend: "redis"}}
	_, err := openStore(context.Background(), logx.Nop(), cfg)
	require.EqualError(t, err, `unknown store backend "redis"`)
}

func TestOpenStore_PostgresConnectCancelled(t *testing.T) {
	orig := newPool
	t.Cleanup(func() { newPool = orig })

	ctx, cancel := context.WithCancel(context.Background())
	var gotDSN string
	newPool = func(_ context.Context, dsn string) (*pgxpool.Pool, error) {
		gotDSN = dsn
		cancel()
		return nil, errors.New("connection refused")
	}

	cfg := &config.Config{Store: config.Store{Backend: config.BackendPostgres}, DB: config.DefaultDB()}
	_, err := openStore(ctx, logx.Nop(), cfg)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, cfg.DB.DSN(), gotDSN)
}

func TestStore_CloseNilSafe(t *testing.T) {
	t.Parallel()

	var s *Store
	require.NoError(t, s.Close())
	require.NoError(t, (&Store{}).Close())
}
