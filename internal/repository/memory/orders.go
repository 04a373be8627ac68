// Package memory is the in-process order store used by default and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"shopflow-tracking/internal/apperr"
	"shopflow-tracking/internal/domain"
)

// OrderRepository keeps orders in a map. Stored values are never shared
// with callers.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

// NewOrderRepository returns an empty store.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*domain.Order)}
}

// Insert stores a new order. Duplicate ids are rejected with apperr.ErrConflict.
func (r *OrderRepository) Insert(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("insert order %s: %w", o.ID, apperr.ErrConflict)
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

// Get returns the order or (nil, nil).
func (r *OrderRepository) Get(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orders[id].Clone(), nil
}

// ListByUser returns the user's orders, oldest first.
func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owned := lo.Filter(lo.Values(r.orders), func(o *domain.Order, _ int) bool { return o.UserID == userID })
	return snapshot(owned), nil
}

// List returns every order, oldest first.
func (r *OrderRepository) List(_ context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(lo.Values(r.orders)), nil
}

// Update replaces a stored order. It reports false when the id is unknown.
func (r *OrderRepository) Update(_ context.Context, o *domain.Order) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return false, nil
	}
	r.orders[o.ID] = o.Clone()
	return true, nil
}

// Ping always succeeds.
func (r *OrderRepository) Ping(context.Context) error { return nil }

// Close is a no-op kept for symmetry with the other stores.
func (r *OrderRepository) Close() error { return nil }

func snapshot(in []*domain.Order) []domain.Order {
	out := lo.Map(in, func(o *domain.Order, _ int) domain.Order { return *o.Clone() })
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
