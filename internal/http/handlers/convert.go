package handlers

import (
	"math"
	"time"

	"github.com/samber/lo"

	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/geo"
)

func (r createOrderRequest) toModel() domain.CreateOrderInput {
	return domain.CreateOrderInput{
		UserID: r.UserID,
		Items: lo.Map(r.Items, func(it orderItemDTO, _ int) domain.OrderItem {
			return domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		}),
		Total:           r.Total,
		Currency:        r.Currency,
		ShippingAddress: r.ShippingAddress,
	}
}

func (r statusRequest) toModel() domain.StatusUpdate {
	return domain.StatusUpdate{
		Status:         domain.OrderStatus(r.Status),
		TrackingNumber: r.TrackingNumber,
		TrackingStatus: r.TrackingStatus,
	}
}

func (r riderDTO) toModel() domain.Rider {
	return domain.Rider{ID: r.ID, Name: r.Name, Phone: r.Phone}
}

func latLngToResponse(p *domain.LatLng) *latLngDTO {
	if p == nil {
		return nil
	}
	return &latLngDTO{Lat: p.Lat, Lng: p.Lng}
}

func deliveryToResponse(d domain.Delivery) deliveryDTO {
	out := deliveryDTO{
		StoreLocation:       latLngToResponse(d.StoreLocation),
		DestinationLocation: latLngToResponse(d.DestinationLocation),
		StartedAt:           d.StartedAt,
		PromisedDeliveryAt:  d.PromisedDeliveryAt,
	}
	if d.CurrentLocation != nil {
		out.CurrentLocation = &geoPointDTO{Lat: d.CurrentLocation.Lat, Lng: d.CurrentLocation.Lng, At: d.CurrentLocation.At}
	}
	if d.Rider != nil {
		out.Rider = &riderDTO{ID: d.Rider.ID, Name: d.Rider.Name, Phone: d.Rider.Phone}
	}
	return out
}

// modelToResponse renders an order. remaining_km and seconds_left are only
// set while the order is still moving.
func modelToResponse(o domain.Order, now time.Time) orderDTO {
	out := orderDTO{
		ID:     o.ID,
		UserID: o.UserID,
		Items: lo.Map(o.Items, func(it domain.OrderItem, _ int) orderItemDTO {
			return orderItemDTO{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		}),
		Total:           o.Total,
		Currency:        o.Currency,
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		TrackingNumber:  o.TrackingNumber,
		TrackingStatus:  o.TrackingStatus,
		Delivery:        deliveryToResponse(o.Delivery),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.Status.Terminal() {
		return out
	}

	d := o.Delivery
	if d.CurrentLocation != nil && d.DestinationLocation != nil {
		km := math.Round(geo.HaversineKm(d.CurrentLocation.LatLng, *d.DestinationLocation)*1000) / 1000
		out.RemainingKm = &km
	}
	if d.PromisedDeliveryAt != nil {
		left := int64(math.Max(0, math.Ceil(d.PromisedDeliveryAt.Sub(now).Seconds())))
		out.SecondsLeft = &left
	}
	return out
}

func modelsToResponse(list []domain.Order, now time.Time) []orderDTO {
	return lo.Map(list, func(o domain.Order, _ int) orderDTO {
		return modelToResponse(o, now)
	})
}
