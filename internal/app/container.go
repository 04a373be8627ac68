package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"shopflow-tracking/internal/config"
	"shopflow-tracking/internal/domain"
	"shopflow-tracking/internal/geo"
	"shopflow-tracking/internal/http/handlers"
	"shopflow-tracking/internal/http/middleware"
	"shopflow-tracking/internal/http/middleware/ratelimit"
	"shopflow-tracking/internal/http/pprofserver"
	"shopflow-tracking/internal/http/router"
	"shopflow-tracking/internal/logx"
	"shopflow-tracking/internal/metrics"
	"shopflow-tracking/internal/schedule"
	"shopflow-tracking/internal/service/tracking"
	"shopflow-tracking/internal/transport/kafka"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	loadConfig func() (*config.Config, error)
	openStore  storeOpener
	logger     func() logx.Logger
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	logFatalf  func(string, ...any)
}

// NewContainerBuilder returns a builder with production defaults.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		loadConfig: config.Load,
		openStore:  openStore,
		logger:     NewLogger,
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		logFatalf:  log.Fatalf,
	}
}

// WithConfig replaces config loading with a fixed config.
func (b *ContainerBuilder) WithConfig(cfg *config.Config) *ContainerBuilder {
	if cfg != nil {
		b.loadConfig = func() (*config.Config, error) { return cfg, nil }
	}
	return b
}

// WithLogger sets the logger.
func (b *ContainerBuilder) WithLogger(logger logx.Logger) *ContainerBuilder {
	if logger != nil {
		b.logger = func() logx.Logger { return logger }
	}
	return b
}

// WithRegistry sets the prometheus registry metrics are registered in and served from.
func (b *ContainerBuilder) WithRegistry(reg *prometheus.Registry) *ContainerBuilder {
	if reg != nil {
		b.registerer = reg
		b.gatherer = reg
	}
	return b
}

// WithStoreOpener replaces backend selection.
func (b *ContainerBuilder) WithStoreOpener(fn storeOpener) *ContainerBuilder {
	if fn != nil {
		b.openStore = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...any)) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx, b); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerStore(container, b.openStore); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	if err := registerKafka(container); err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds the production container.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context, b *ContainerBuilder) error {
	return provideAll(container,
		func() context.Context { return ctx },
		b.logger,
		b.loadConfig,
		func() prometheus.Registerer { return b.registerer },
		func() prometheus.Gatherer { return b.gatherer },
		provideMetrics,
		func() schedule.Real { return schedule.NewReal() },
		func(r schedule.Real) schedule.Clock { return r },
		func(r schedule.Real) schedule.Scheduler { return r },
	)
}

func registerStore(container *dig.Container, open storeOpener) error {
	return provideAll(container,
		func(ctx context.Context, logger logx.Logger, cfg *config.Config) (*Store, error) {
			s, err := open(ctx, logger, cfg)
			if err != nil {
				return nil, err
			}
			logger.Info("order store ready", logx.String("backend", s.Backend))
			return s, nil
		},
		func(s *Store) tracking.OrderRepository { return s.Repo },
	)
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config) tracking.Config {
			t := cfg.Tracking
			return tracking.Config{
				StoreLocation:          domain.LatLng{Lat: t.StoreLat, Lng: t.StoreLng},
				TickInterval:           t.TickInterval,
				DefaultPromisedMinutes: t.DefaultPromisedMinutes,
				OperationTimeout:       t.OperationTimeout,
			}
		},
		func(cfg tracking.Config, appCfg *config.Config) geo.Geocoder {
			return geo.NewJitterGeocoder(cfg.StoreLocation, appCfg.Tracking.DestinationJitterKm)
		},
		func(
			repo tracking.OrderRepository,
			sched schedule.Scheduler,
			clock schedule.Clock,
			geocoder geo.Geocoder,
			cfg tracking.Config,
			logger logx.Logger,
			m *metrics.Tracking,
		) *tracking.Service {
			return tracking.NewService(repo, sched, clock, geocoder, cfg, logger.With(logx.String("component", "tracking")), m)
		},
	)
}

type routerIn struct {
	dig.In

	Base          *handlers.Handlers
	Orders        *handlers.OrderHandler
	Logger        logx.Logger
	HTTPMetrics   *middleware.HTTPMetrics
	LocationLimit *ratelimit.Middleware
	Gatherer      prometheus.Gatherer
}

type pprofOut struct {
	dig.Out

	Server *http.Server `name:"pprof_server"`
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	pprofProvider := func(cfg *config.Config, svc *tracking.Service) pprofOut {
		if !cfg.Pprof.Enabled {
			return pprofOut{}
		}
		return pprofOut{Server: &http.Server{
			Addr:              cfg.Pprof.Addr,
			Handler:           pprofserver.Handler(pprofserver.Config{User: cfg.Pprof.User, Pass: cfg.Pprof.Pass}, svc),
			ReadHeaderTimeout: 5 * time.Second,
		}}
	}
	return provideAll(container,
		func(logger logx.Logger, svc *tracking.Service) *handlers.Handlers {
			return handlers.New(logger, svc)
		},
		handlers.NewOrderUsecase,
		handlers.NewOrderHandler,
		newRateLimiter,
		newLocationRateLimit,
		func(in routerIn) http.Handler {
			return router.New(router.Deps{
				Base:          in.Base,
				Orders:        in.Orders,
				Logger:        in.Logger,
				HTTPMetrics:   in.HTTPMetrics,
				LocationLimit: in.LocationLimit,
				Metrics:       newMetricsHandler(in.Gatherer),
			})
		},
		serverProvider,
		pprofProvider,
	)
}

type kafkaIn struct {
	dig.In

	Logger   logx.Logger
	Config   *config.Config
	Service  *tracking.Service
	Outcomes *prometheus.CounterVec `name:"rider_location_messages_total"`
}

func registerKafka(container *dig.Container) error {
	return provideAll(container,
		func(in kafkaIn) (*kafka.Consumer, error) {
			k := in.Config.Kafka
			if !k.Enabled() {
				in.Logger.Info("rider location consumer disabled")
				return nil, nil
			}
			return kafka.NewConsumer(in.Logger, k.Brokers, k.GroupID, k.LocationsTopic, in.Service, in.Outcomes)
		},
	)
}
