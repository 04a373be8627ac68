package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"shopflow-tracking/internal/logx"
	"shopflow-tracking/internal/schedule"
)

type stubLimiter struct {
	allow bool
	keys  []string
}

func (s *stubLimiter) Allow(key string) bool {
	s.keys = append(s.keys, key)
	return s.allow
}

func TestMiddleware_Allows_RequestPassesToNext(t *testing.T) {
	t.Parallel()

	nextCalled := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled++
		w.WriteHeader(http.StatusOK)
	})

	lim := &stubLimiter{allow: true}
	h := New(logx.Nop(), nil, lim, nil).Handler()(next)

	r := httptest.NewRequest(http.MethodGet, "http://example/orders", nil)
	r.RemoteAddr = "1.2.3.4:5678"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, nextCalled)
	require.Equal(t, []string{"1.2.3.4"}, lim.keys)
}

func TestMiddleware_Blocks_Returns429AndIncrementsCounter(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.FailNow(t, "next must not be called")
	})

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "ratelimit_denied_total", Help: "denied requests"})
	h := New(logx.Nop(), counter, &stubLimiter{allow: false}, nil).Handler()(next)

	r := httptest.NewRequest(http.MethodGet, "http://example/orders", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.Equal(t, "1", w.Header().Get("Retry-After"))
	require.Equal(t, `{"error":"too many requests"}`, w.Body.String())
	require.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestMiddleware_PerOrderKeys(t *testing.T) {
	t.Parallel()

	limiter := NewTokenBucketLimiter(schedule.NewManual(time.Unix(0, 0)), Config{Rate: 1, Burst: 1})

	r := chi.NewRouter()
	r.With(New(logx.Nop(), nil, limiter, ByURLParam("id")).Handler()).
		Post("/orders/{id}/location", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

	post := func(id string) int {
		req := httptest.NewRequest(http.MethodPost, "/orders/"+id+"/location", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusOK, post("o-1"))
	require.Equal(t, http.StatusTooManyRequests, post("o-1"))
	require.Equal(t, http.StatusOK, post("o-2"), "another order has its own bucket")
}
