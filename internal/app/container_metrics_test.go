package app

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"shopflow-tracking/internal/metrics"
)

func TestProvideMetrics_FreshRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	out, err := provideMetrics(reg)
	require.NoError(t, err)
	require.NotNil(t, out.RateLimitExceededTotal)
	require.NotNil(t, out.LocationMessagesTotal)
	require.NotNil(t, out.Tracking)
	require.NotNil(t, out.HTTP)

	out.RateLimitExceededTotal.Inc()
	out.LocationMessagesTotal.WithLabelValues("applied").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	require.Contains(t, names, "rate_limit_exceeded_total")
	require.Contains(t, names, "rider_location_messages_total")
}

func TestRegisterOrReuse_ReturnsExisting(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first, err := registerOrReuse(reg, metrics.NewRateLimitExceededTotal(), "rate_limit_exceeded_total")
	require.NoError(t, err)

	second, err := registerOrReuse(reg, metrics.NewRateLimitExceededTotal(), "rate_limit_exceeded_total")
	require.NoError(t, err)
	require.Same(t, first, second)
}

type failingRegisterer struct {
	prometheus.Registerer
}

func (failingRegisterer) Register(prometheus.Collector) error { return errors.New("registry closed") }

func TestProvideMetrics_RegisterError(t *testing.T) {
	t.Parallel()

	_, err := provideMetrics(failingRegisterer{})
	require.EqualError(t, err, "register rate_limit_exceeded_total: registry closed")
}

func TestProvideMetrics_SecondCallFailsOnTrackingCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := provideMetrics(reg)
	require.NoError(t, err)

	_, err = provideMetrics(reg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "register tracking metrics")
}

func TestNewMetricsHandler_ServesRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewRateLimitExceededTotal()
	reg.MustRegister(c)
	c.Add(3)

	srv := httptest.NewServer(newMetricsHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "rate_limit_exceeded_total 3")
}
