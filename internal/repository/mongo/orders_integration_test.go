//go:build integration

package mongo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"shopflow-tracking/internal/apperr"
	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/repository/mongo"
)

func startMongo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "27017")
	require.NoError(t, err)
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func TestOrderRepository_Mongo(t *testing.T) {
	ctx := t.Context()
	client, err := mongo.Connect(ctx, startMongo(t))
	require.NoError(t, err)

	repo, err := mongo.NewOrderRepository(ctx, client, "tracking_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	now := time.Now().UTC().Truncate(time.Millisecond)
	o := &domain.Order{
		ID:              "o-1",
		UserID:          "u-1",
		Items:           []domain.OrderItem{{ProductID: "p-1", Quantity: 1, UnitPrice: decimal.NewFromInt(500)}},
		Total:           decimal.NewFromInt(500),
		Currency:        "BDT",
		ShippingAddress: "Dhaka",
		Status:          domain.StatusPending,
		TrackingStatus:  "Order Placed",
		Delivery:        domain.Delivery{StoreLocation: &domain.LatLng{Lat: 23.78, Lng: 90.28}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	opts := []cmp.Option{
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmpopts.EquateApproxTime(time.Millisecond),
	}

	require.NoError(t, repo.Insert(ctx, o))
	require.ErrorIs(t, repo.Insert(ctx, o), apperr.ErrConflict)

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(o, got, opts...))

	o.Status = domain.StatusCancelled
	o.TrackingStatus = "Cancelled"
	ok, err := repo.Update(ctx, o)
	require.NoError(t, err)
	require.True(t, ok)

	list, err := repo.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, domain.StatusCancelled, list[0].Status)

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	ok, err = repo.Update(ctx, &domain.Order{ID: "nope"})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, repo.Ping(ctx))
}
