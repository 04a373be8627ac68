// Package record defines the storage shape of an order shared by the
// document-style stores. Money travels as decimal strings.
package record

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"shopflow-tracking/internal/domain"
)

// Order is the persisted order body.
type Order struct {
	ID              string    `json:"id" bson:"_id"`
	UserID          string    `json:"user_id" bson:"user_id"`
	Items           []Item    `json:"items" bson:"items"`
	Total           string    `json:"total" bson:"total"`
	Currency        string    `json:"currency" bson:"currency"`
	ShippingAddress string    `json:"shipping_address" bson:"shipping_address"`
	Status          string    `json:"status" bson:"status"`
	TrackingNumber  string    `json:"tracking_number,omitempty" bson:"tracking_number,omitempty"`
	TrackingStatus  string    `json:"tracking_status" bson:"tracking_status"`
	Delivery        Delivery  `json:"delivery" bson:"delivery"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// Item is one order line.
type Item struct {
	ProductID string `json:"product_id" bson:"product_id"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	UnitPrice string `json:"unit_price" bson:"unit_price"`
}

// Delivery is the simulation block.
type Delivery struct {
	StoreLocation       *LatLng    `json:"store_location,omitempty" bson:"store_location,omitempty"`
	DestinationLocation *LatLng    `json:"destination_location,omitempty" bson:"destination_location,omitempty"`
	CurrentLocation     *GeoPoint  `json:"current_location,omitempty" bson:"current_location,omitempty"`
	StartedAt           *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	PromisedDeliveryAt  *time.Time `json:"promised_delivery_at,omitempty" bson:"promised_delivery_at,omitempty"`
	Rider               *Rider     `json:"rider,omitempty" bson:"rider,omitempty"`
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// GeoPoint is a timestamped coordinate.
type GeoPoint struct {
	Lat float64   `json:"lat" bson:"lat"`
	Lng float64   `json:"lng" bson:"lng"`
	At  time.Time `json:"at" bson:"at"`
}

// Rider is the assigned rider.
type Rider struct {
	ID    string `json:"id" bson:"id"`
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// FromDomain converts an order to its stored form.
func FromDomain(o *domain.Order) Order {
	return Order{
		ID:     o.ID,
		UserID: o.UserID,
		Items: lo.Map(o.Items, func(it domain.OrderItem, _ int) Item {
			return Item{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice.String()}
		}),
		Total:           o.Total.String(),
		Currency:        o.Currency,
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		TrackingNumber:  o.TrackingNumber,
		TrackingStatus:  o.TrackingStatus,
		Delivery:        DeliveryFromDomain(o.Delivery),
		CreatedAt:       o.CreatedAt.UTC(),
		UpdatedAt:       o.UpdatedAt.UTC(),
	}
}

// DeliveryFromDomain converts the delivery block.
func DeliveryFromDomain(d domain.Delivery) Delivery {
	out := Delivery{
		StartedAt:          utcPtr(d.StartedAt),
		PromisedDeliveryAt: utcPtr(d.PromisedDeliveryAt),
	}
	if d.StoreLocation != nil {
		out.StoreLocation = &LatLng{Lat: d.StoreLocation.Lat, Lng: d.StoreLocation.Lng}
	}
	if d.DestinationLocation != nil {
		out.DestinationLocation = &LatLng{Lat: d.DestinationLocation.Lat, Lng: d.DestinationLocation.Lng}
	}
	if d.CurrentLocation != nil {
		out.CurrentLocation = &GeoPoint{Lat: d.CurrentLocation.Lat, Lng: d.CurrentLocation.Lng, At: d.CurrentLocation.At.UTC()}
	}
	if d.Rider != nil {
		out.Rider = &Rider{ID: d.Rider.ID, Name: d.Rider.Name, Phone: d.Rider.Phone}
	}
	return out
}

// ToDomain converts the stored form back. Malformed money values are reported.
func (r Order) ToDomain() (*domain.Order, error) {
	total, err := decimal.NewFromString(r.Total)
	if err != nil {
		return nil, fmt.Errorf("order %s: total: %w", r.ID, err)
	}
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("order %s: unit price: %w", r.ID, err)
		}
		items = append(items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: price})
	}
	return &domain.Order{
		ID:              r.ID,
		UserID:          r.UserID,
		Items:           items,
		Total:           total,
		Currency:        r.Currency,
		ShippingAddress: r.ShippingAddress,
		Status:          domain.OrderStatus(r.Status),
		TrackingNumber:  r.TrackingNumber,
		TrackingStatus:  r.TrackingStatus,
		Delivery:        r.Delivery.ToDomain(),
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}, nil
}

// ToDomain converts the delivery block back.
func (d Delivery) ToDomain() domain.Delivery {
	out := domain.Delivery{
		StartedAt:          utcPtr(d.StartedAt),
		PromisedDeliveryAt: utcPtr(d.PromisedDeliveryAt),
	}
	if d.StoreLocation != nil {
		out.StoreLocation = &domain.LatLng{Lat: d.StoreLocation.Lat, Lng: d.StoreLocation.Lng}
	}
	if d.DestinationLocation != nil {
		out.DestinationLocation = &domain.LatLng{Lat: d.DestinationLocation.Lat, Lng: d.DestinationLocation.Lng}
	}
	if d.CurrentLocation != nil {
		out.CurrentLocation = &domain.GeoPoint{
			LatLng: domain.LatLng{Lat: d.CurrentLocation.Lat, Lng: d.CurrentLocation.Lng},
			At:     d.CurrentLocation.At.UTC(),
		}
	}
	if d.Rider != nil {
		out.Rider = &domain.Rider{ID: d.Rider.ID, Name: d.Rider.Name, Phone: d.Rider.Phone}
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
