package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"shopflow-tracking/internal/http/handlers"
	"shopflow-tracking/internal/http/middleware"
	"shopflow-tracking/internal/http/middleware/ratelimit"
	"shopflow-tracking/internal/logx"
)

const requestTimeout = 5 * time.Second

// Deps is everything the router mounts.
type Deps struct {
	Base          *handlers.Handlers
	Orders        *handlers.OrderHandler
	Logger        logx.Logger
	HTTPMetrics   *middleware.HTTPMetrics
	LocationLimit *ratelimit.Middleware
	Metrics       http.Handler
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logx.Nop()
	}
	if d.HTTPMetrics == nil {
		d.HTTPMetrics = middleware.NewHTTPMetrics()
	}
	if d.LocationLimit == nil {
		d.LocationLimit = ratelimit.New(d.Logger, nil, nil, nil)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Observability(d.Logger, d.HTTPMetrics))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
	r.NotFound(d.Base.NotFound)

	r.Route("/orders", func(r chi.Router) {
		// long-lived websocket, no request timeout
		r.Get("/{id}/stream", d.Orders.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))

			r.Post("/", d.Orders.Create)
			r.Get("/", d.Orders.List)
			r.Get("/{id}", d.Orders.GetByID)
			r.Patch("/{id}/status", d.Orders.UpdateStatus)
			r.Put("/{id}/rider", d.Orders.AssignRider)
			r.Post("/{id}/express-delivery", d.Orders.StartExpressDelivery)
			r.With(d.LocationLimit.Handler()).Post("/{id}/location", d.Orders.UpdateLocation)
		})
	})

	return r
}
