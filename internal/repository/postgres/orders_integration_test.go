//go:build integration

package postgres_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"shopflow-tracking/internal/apperr"
	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/repository/postgres"
)

var tcPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("test_db"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start postgres testcontainer: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		log.Fatalf("failed to get connection string from container: %v", err)
	}

	pool, err := postgres.NewPool(ctx, connStr)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		log.Fatalf("failed to create pgx pool: %v", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
		log.Fatalf("failed to create tables: %v", err)
	}
	tcPool = pool

	code := m.Run()

	pool.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		log.Printf("failed to terminate postgres container: %v", err)
	}
	os.Exit(code)
}

type OrderRepositorySuite struct {
	suite.Suite
	repo *postgres.OrderRepository
}

func TestOrderRepositorySuite(t *testing.T) {
	suite.Run(t, new(OrderRepositorySuite))
}

func (s *OrderRepositorySuite) SetupTest() {
	_, err := tcPool.Exec(s.T().Context(), `TRUNCATE orders CASCADE`)
	s.Require().NoError(err)
	s.repo = postgres.NewOrderRepository(tcPool)
}

var orderCmp = []cmp.Option{
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmpopts.EquateEmpty(),
	cmpopts.EquateApproxTime(time.Microsecond),
}

func randomOrder(userID string, createdAt time.Time) *domain.Order {
	items := make([]domain.OrderItem, gofakeit.IntRange(1, 3))
	total := decimal.Zero
	for i := range items {
		items[i] = domain.OrderItem{
			ProductID: gofakeit.UUID(),
			Quantity:  gofakeit.IntRange(1, 4),
			UnitPrice: decimal.NewFromFloat(gofakeit.Price(1, 300)).Round(2),
		}
		total = total.Add(items[i].Subtotal())
	}
	return &domain.Order{
		ID:              gofakeit.UUID(),
		UserID:          userID,
		Items:           items,
		Total:           total,
		Currency:        "BDT",
		ShippingAddress: gofakeit.Address().Address,
		Status:          domain.StatusPending,
		TrackingStatus:  domain.StatusPending.TrackingMessage(),
		Delivery: domain.Delivery{
			StoreLocation:       &domain.LatLng{Lat: 23.78, Lng: 90.28},
			DestinationLocation: &domain.LatLng{Lat: 23.8, Lng: 90.31},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func (s *OrderRepositorySuite) TestInsertAndGet() {
	ctx := s.T().Context()
	o := randomOrder("u-1", time.Now().UTC())

	s.Require().NoError(s.repo.Insert(ctx, o))
	s.Require().ErrorIs(s.repo.Insert(ctx, o), apperr.ErrConflict)

	got, err := s.repo.Get(ctx, o.ID)
	s.Require().NoError(err)
	s.Require().Empty(cmp.Diff(o, got, orderCmp...))

	missing, err := s.repo.Get(ctx, "missing")
	s.Require().NoError(err)
	s.Require().Nil(missing)
}

func (s *OrderRepositorySuite) TestUpdateDeliveryState() {
	ctx := s.T().Context()
	now := time.Now().UTC()
	o := randomOrder("u-1", now)
	s.Require().NoError(s.repo.Insert(ctx, o))

	deadline := now.Add(10 * time.Minute)
	o.Status = domain.StatusOutForDelivery
	o.TrackingStatus = domain.StatusOutForDelivery.TrackingMessage()
	o.Delivery.StartedAt = &now
	o.Delivery.PromisedDeliveryAt = &deadline
	o.Delivery.CurrentLocation = &domain.GeoPoint{LatLng: *o.Delivery.StoreLocation, At: now}
	o.Delivery.Rider = &domain.DefaultRider
	o.UpdatedAt = now.Add(time.Second)

	ok, err := s.repo.Update(ctx, o)
	s.Require().NoError(err)
	s.Require().True(ok)

	got, err := s.repo.Get(ctx, o.ID)
	s.Require().NoError(err)
	s.Require().Empty(cmp.Diff(o, got, orderCmp...))

	ok, err = s.repo.Update(ctx, randomOrder("u-1", now))
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *OrderRepositorySuite) TestListOrdering() {
	ctx := s.T().Context()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	second := randomOrder("u-1", base.Add(time.Hour))
	first := randomOrder("u-1", base)
	other := randomOrder("u-2", base.Add(time.Minute))
	for _, o := range []*domain.Order{second, first, other} {
		s.Require().NoError(s.repo.Insert(ctx, o))
	}

	mine, err := s.repo.ListByUser(ctx, "u-1")
	s.Require().NoError(err)
	s.Require().Empty(cmp.Diff([]domain.Order{*first, *second}, mine, orderCmp...))

	all, err := s.repo.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Require().Equal(other.ID, all[1].ID)

	s.Require().NoError(s.repo.Ping(ctx))
}
