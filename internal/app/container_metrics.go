package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"shopflow-tracking/internal/http/middleware"
	"shopflow-tracking/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal prometheus.Counter     `name:"rate_limit_exceeded_total"`
	LocationMessagesTotal  *prometheus.CounterVec `name:"rider_location_messages_total"`
	Tracking               *metrics.Tracking
	HTTP                   *middleware.HTTPMetrics
}

// provideMetrics registers every collector. The standalone counters are
// reused when already registered.
func provideMetrics(reg prometheus.Registerer) (metricsOut, error) {
	rl, err := registerOrReuse(reg, metrics.NewRateLimitExceededTotal(), "rate_limit_exceeded_total")
	if err != nil {
		return metricsOut{}, err
	}
	loc, err := registerOrReuse(reg, metrics.NewLocationMessagesTotal(), "rider_location_messages_total")
	if err != nil {
		return metricsOut{}, err
	}

	tr := metrics.NewTracking()
	if err := registerAll(reg, "tracking", tr.Collectors()...); err != nil {
		return metricsOut{}, err
	}
	httpMetrics := middleware.NewHTTPMetrics()
	if err := registerAll(reg, "http", httpMetrics.Collectors()...); err != nil {
		return metricsOut{}, err
	}

	return metricsOut{
		RateLimitExceededTotal: rl,
		LocationMessagesTotal:  loc,
		Tracking:               tr,
		HTTP:                   httpMetrics,
	}, nil
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}

func registerAll(reg prometheus.Registerer, group string, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register %s metrics: %w", group, err)
		}
	}
	return nil
}

func newMetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
