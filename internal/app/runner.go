package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/dig"

	"shopflow-tracking/internal/logx"
	"shopflow-tracking/internal/service/tracking"
	"shopflow-tracking/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// Runner runs the service from a built container.
type Runner struct {
	runFn  func(*dig.Container) error
	fatalf func(string, ...any)
}

// NewRunner returns a runner for the tracking service.
func NewRunner() *Runner {
	return &Runner{runFn: run, fatalf: log.Fatalf}
}

// MustRun runs the service until its context ends. Any failure other than
// cancellation is fatal.
func (r *Runner) MustRun(container *dig.Container) {
	logger := logx.Nop()
	_ = container.Invoke(func(l logx.Logger) { logger = l })

	err := r.runFn(container)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("startup aborted: startup timeout exceeded")
	default:
		logger.Error("run error", logx.Err(err))
		if r.fatalf != nil {
			r.fatalf("run error: %v", err)
		}
	}
}

type runIn struct {
	dig.In

	Ctx      context.Context
	Logger   logx.Logger
	Server   *http.Server
	Pprof    *http.Server `name:"pprof_server" optional:"true"`
	Service  *tracking.Service
	Store    *Store
	Consumer *kafka.Consumer `optional:"true"`
}

func run(container *dig.Container) error {
	return container.Invoke(serve)
}

func serve(in runIn) error {
	ctx, cancel := context.WithCancel(in.Ctx)
	defer cancel()

	errCh := make(chan error, 2)
	startServer(in.Logger, "http", in.Server, errCh)
	if in.Pprof != nil {
		startServer(in.Logger, "pprof", in.Pprof, errCh)
	}

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := in.Consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			in.Logger.Error("location consumer stopped", logx.Err(err))
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		in.Logger.Info("shutting down service-tracking")
	case runErr = <-errCh:
		in.Logger.Error("server failed, shutting down", logx.Err(runErr))
	}

	gracefulShutdown(in.Server, in.Logger, shutdownTimeout)
	if in.Pprof != nil {
		gracefulShutdown(in.Pprof, in.Logger, shutdownTimeout)
	}
	in.Service.Close()

	cancel()
	<-consumerDone
	closeResources(in.Logger, in.Consumer, in.Store)

	if runErr != nil {
		return runErr
	}
	return in.Ctx.Err()
}

func startServer(logger logx.Logger, name string, server *http.Server, errCh chan<- error) {
	go func() {
		logger.Info("listening", logx.String("server", name), logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}()
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("graceful shutdown error", logx.String("addr", srv.Addr), logx.Err(err))
	}
}

func closeResources(logger logx.Logger, consumer *kafka.Consumer, store *Store) {
	if err := consumer.Close(); err != nil {
		logger.Warn("consumer close error", logx.Err(err))
	}
	if err := store.Close(); err != nil {
		logger.Warn("store close error", logx.Err(err))
	}
}
