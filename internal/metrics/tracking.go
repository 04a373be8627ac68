package metrics

import "github.com/prometheus/client_golang/prometheus"

// Tracking collects delivery simulation metrics.
type Tracking struct {
	active    prometheus.Gauge
	ticks     prometheus.Counter
	finalized *prometheus.CounterVec
	overrides prometheus.Counter
}

// NewTracking builds unregistered tracking collectors.
func NewTracking() *Tracking {
	return &Tracking{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracking_active_simulations",
			Help: "Number of delivery simulations currently running",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_simulation_ticks_total",
			Help: "Total number of simulator ticks that moved a rider",
		}),
		finalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_orders_finalized_total",
			Help: "Orders that reached a terminal status, by reason",
		}, []string{"reason"}),
		overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracking_location_overrides_total",
			Help: "Real rider location fixes applied to orders",
		}),
	}
}

// Collectors returns every collector for registration.
func (t *Tracking) Collectors() []prometheus.Collector {
	return []prometheus.Collector{t.active, t.ticks, t.finalized, t.overrides}
}

func (t *Tracking) SimulationStarted()           { t.active.Inc() }
func (t *Tracking) SimulationStopped()           { t.active.Dec() }
func (t *Tracking) SimulationTick()              { t.ticks.Inc() }
func (t *Tracking) OrderFinalized(reason string) { t.finalized.WithLabelValues(reason).Inc() }
func (t *Tracking) LocationOverridden()          { t.overrides.Inc() }
