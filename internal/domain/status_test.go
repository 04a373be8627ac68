package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"forward one step", StatusPending, StatusApproved, true},
		{"forward skipping steps", StatusProcessing, StatusDelivered, true},
		{"out for delivery to delivered", StatusOutForDelivery, StatusDelivered, true},
		{"same status", StatusProcessing, StatusProcessing, true},
		{"backward", StatusShipped, StatusApproved, false},
		{"cancel from pending", StatusPending, StatusCancelled, true},
		{"cancel while out for delivery", StatusOutForDelivery, StatusCancelled, true},
		{"delivered is frozen", StatusDelivered, StatusCancelled, false},
		{"delivered to shipped", StatusDelivered, StatusShipped, false},
		{"cancelled is frozen", StatusCancelled, StatusPending, false},
		{"unknown target", StatusPending, OrderStatus("lost"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_TrackingMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Order Placed", StatusPending.TrackingMessage())
	require.Equal(t, "In Transit", StatusShipped.TrackingMessage())
	require.Equal(t, "Delivered", StatusDelivered.TrackingMessage())
	require.Empty(t, OrderStatus("lost").TrackingMessage())
}

func TestOrderStatus_Terminal(t *testing.T) {
	t.Parallel()

	require.True(t, StatusDelivered.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.False(t, StatusOutForDelivery.Terminal())
	require.Equal(t, -1, StatusCancelled.Rank())
}

func TestOrder_CloneDoesNotAlias(t *testing.T) {
	t.Parallel()

	o := &Order{
		ID:    "o-1",
		Items: []OrderItem{{ProductID: "p-1", Quantity: 2, UnitPrice: decimal.NewFromInt(10)}},
		Delivery: Delivery{
			StoreLocation: &LatLng{Lat: 1, Lng: 2},
			Rider:         &Rider{ID: "r-1"},
		},
	}

	c := o.Clone()
	c.Items[0].Quantity = 5
	c.Delivery.StoreLocation.Lat = 9
	c.Delivery.Rider.ID = "r-2"

	require.Equal(t, 2, o.Items[0].Quantity)
	require.Equal(t, 1.0, o.Delivery.StoreLocation.Lat)
	require.Equal(t, "r-1", o.Delivery.Rider.ID)
	require.True(t, decimal.NewFromInt(20).Equal(o.Items[0].Subtotal()))
}

func TestValidatePhone(t *testing.T) {
	t.Parallel()

	require.True(t, ValidatePhone("+8801712345678"))
	require.False(t, ValidatePhone("8801712345678"))
	require.False(t, ValidatePhone("+88017-1234"))
}
