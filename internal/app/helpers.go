package app

import (
	"context"
	"fmt"
	"time"

	"shopflow-tracking/internal/logx"
	"shopflow-tracking/internal/repository/postgres"
)

var newPool = postgres.NewPool

const connectAttemptTimeout = 3 * time.Second

// connectWithRetry calls connect until it succeeds, retries are exhausted or ctx ends.
func connectWithRetry[T any](
	ctx context.Context,
	logger logx.Logger,
	name string,
	connect func(context.Context) (T, error),
	retries int,
	delay time.Duration,
) (T, error) {
	var (
		zero    T
		lastErr error
	)
	for i := 1; i <= retries; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, connectAttemptTimeout)
		v, err := connect(attemptCtx)
		cancel()
		if err == nil {
			logger.Info("store connected", logx.String("store", name), logx.Int("attempt", i))
			return v, nil
		}
		lastErr = err
		logger.Warn("store connect failed",
			logx.String("store", name),
			logx.Int("attempt", i),
			logx.Int("retries", retries),
			logx.Err(err),
		)
		if i < retries {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, fmt.Errorf("%s connect failed after %d attempts: %w", name, retries, lastErr)
}
