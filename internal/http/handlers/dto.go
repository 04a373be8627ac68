package handlers

import (
	"time"

	"github.com/shopspring/decimal"
)

type latLngDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geoPointDTO struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	At  time.Time `json:"at"`
}

type riderDTO struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type orderItemDTO struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type deliveryDTO struct {
	StoreLocation       *latLngDTO   `json:"store_location,omitempty"`
	DestinationLocation *latLngDTO   `json:"destination_location,omitempty"`
	CurrentLocation     *geoPointDTO `json:"current_location,omitempty"`
	StartedAt           *time.Time   `json:"started_at,omitempty"`
	PromisedDeliveryAt  *time.Time   `json:"promised_delivery_at,omitempty"`
	Rider               *riderDTO    `json:"rider,omitempty"`
}

type orderDTO struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []orderItemDTO  `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	ShippingAddress string          `json:"shipping_address"`
	Status          string          `json:"status"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	TrackingStatus  string          `json:"tracking_status"`
	Delivery        deliveryDTO     `json:"delivery"`
	RemainingKm     *float64        `json:"remaining_km,omitempty"`
	SecondsLeft     *int64          `json:"seconds_left,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type createOrderRequest struct {
	UserID          string          `json:"user_id" validate:"required"`
	Items           []orderItemDTO  `json:"items" validate:"dive"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	ShippingAddress string          `json:"shipping_address" validate:"required,min=3"`
}

type statusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingStatus string `json:"tracking_status,omitempty"`
}

type expressDeliveryRequest struct {
	Rider           *riderDTO `json:"rider,omitempty"`
	PromisedMinutes int       `json:"promised_minutes,omitempty" validate:"gte=0,lte=240"`
}

type locationRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}
