package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// GeoPoint is a coordinate observed at a moment in time.
type GeoPoint struct {
	LatLng
	At time.Time
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity multiplied by the unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Delivery holds the simulation state of an order. Fields stay nil until a
// delivery is started or a rider is assigned. CurrentLocation is only
// meaningful while the order is out for delivery.
type Delivery struct {
	StoreLocation       *LatLng
	DestinationLocation *LatLng
	CurrentLocation     *GeoPoint
	StartedAt           *time.Time
	PromisedDeliveryAt  *time.Time
	Rider               *Rider
}

// Order is a checkout transaction with its tracking state.
type Order struct {
	ID              string
	UserID          string
	Items           []OrderItem
	Total           decimal.Decimal
	Currency        string
	ShippingAddress string
	Status          OrderStatus
	TrackingNumber  string
	TrackingStatus  string
	Delivery        Delivery
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy, so snapshots handed to listeners and callers
// never alias store-owned memory.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		copy(c.Items, o.Items)
	}
	c.Delivery = o.Delivery.clone()
	return &c
}

func (d Delivery) clone() Delivery {
	out := Delivery{}
	if d.StoreLocation != nil {
		v := *d.StoreLocation
		out.StoreLocation = &v
	}
	if d.DestinationLocation != nil {
		v := *d.DestinationLocation
		out.DestinationLocation = &v
	}
	if d.CurrentLocation != nil {
		v := *d.CurrentLocation
		out.CurrentLocation = &v
	}
	if d.StartedAt != nil {
		v := *d.StartedAt
		out.StartedAt = &v
	}
	if d.PromisedDeliveryAt != nil {
		v := *d.PromisedDeliveryAt
		out.PromisedDeliveryAt = &v
	}
	if d.Rider != nil {
		v := *d.Rider
		out.Rider = &v
	}
	return out
}

// CreateOrderInput carries the checkout data needed to place an order.
// Total is computed from Items when zero.
type CreateOrderInput struct {
	UserID          string
	Items           []OrderItem
	Total           decimal.Decimal
	Currency        string
	ShippingAddress string
}

// StatusUpdate carries a status change with optional tracking overrides.
// Empty TrackingNumber keeps the current one; empty TrackingStatus derives
// the message from the status.
type StatusUpdate struct {
	Status         OrderStatus
	TrackingNumber string
	TrackingStatus string
}
