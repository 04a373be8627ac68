//go:generate mockgen -source=contracts.go -destination=mocks_test.go -package=tracking

package tracking

import (
	"context"

	"shopflow-tracking/internal/domain"
)

// OrderRepository is the persistence port for orders. Get returns (nil, nil)
// when the order does not exist and Update reports false in the same case.
type OrderRepository interface {
	Insert(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Update(ctx context.Context, o *domain.Order) (bool, error)
	Ping(ctx context.Context) error
}

// Metrics receives simulation lifecycle events.
type Metrics interface {
	SimulationStarted()
	SimulationStopped()
	SimulationTick()
	OrderFinalized(reason string)
	LocationOverridden()
}

type nopMetrics struct{}

func (nopMetrics) SimulationStarted()    {}
func (nopMetrics) SimulationStopped()    {}
func (nopMetrics) SimulationTick()       {}
func (nopMetrics) OrderFinalized(string) {}
func (nopMetrics) LocationOverridden()   {}
