package handlers

import (
	"context"
	"net/http"
	"time"

	"shopflow-tracking/internal/logx"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Handlers serves the service-level endpoints.
type Handlers struct {
	Logger logx.Logger
	store  pinger
}

// New creates Handlers. store may be nil, then the healthcheck only reports liveness.
func New(logger logx.Logger, store pinger) *Handlers {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Handlers{Logger: logger, store: store}
}

// Ping handles GET /ping and returns 200 with {"message":"pong"}.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.Logger, w, r, http.StatusOK, map[string]string{"message": "pong"})
}

// HealthcheckHead handles HEAD /healthcheck: 204 when the order store answers, 503 otherwise.
func (h *Handlers) HealthcheckHead(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.Logger.Warn("healthcheck: store unavailable", logx.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// NotFound returns a JSON 404 error for unknown routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(h.Logger, w, r, http.StatusNotFound, "route not found")
}
