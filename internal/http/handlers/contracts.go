package handlers

import (
	"context"

	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/service/tracking"
)

type orderUsecase interface {
	CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]domain.Order, error)
	GetAllOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, upd domain.StatusUpdate) (*domain.Order, error)
	AssignRider(ctx context.Context, id string, rider domain.Rider) (*domain.Order, error)
	StartExpressDelivery(ctx context.Context, id string, rider *domain.Rider, promisedMinutes int) (*domain.Order, error)
	UpdateOrderLocation(ctx context.Context, id string, lat, lng float64) (*domain.Order, error)
	SubscribeToOrder(ctx context.Context, id string, listener tracking.Listener) (func(), error)
}

// NewOrderUsecase wires the tracking service into the order handlers.
func NewOrderUsecase(svc *tracking.Service) orderUsecase {
	return svc
}
