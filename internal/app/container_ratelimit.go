package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"shopflow-tracking/internal/config"
	"shopflow-tracking/internal/http/middleware/ratelimit"
	"shopflow-tracking/internal/logx"
	"shopflow-tracking/internal/schedule"
)

// newRateLimiter builds the per-order limiter for location pushes. A
// disabled limiter or a non-positive rate lets every push through.
func newRateLimiter(cfg *config.Config, clock schedule.Clock, logger logx.Logger) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled || rl.Rate <= 0 {
		logger.Info("location rate limit disabled")
		return ratelimit.NopLimiter{}
	}
	logger.Info("location rate limit enabled",
		logx.Float64("rate", rl.Rate),
		logx.Int("burst", rl.Burst),
		logx.Duration("ttl", rl.TTL),
	)
	return ratelimit.NewTokenBucketLimiter(clock, ratelimit.Config{
		Rate:       rl.Rate,
		Burst:      rl.Burst,
		TTL:        rl.TTL,
		MaxBuckets: rl.MaxBuckets,
	})
}

type locationLimitIn struct {
	dig.In

	Logger  logx.Logger
	Rejects prometheus.Counter `name:"rate_limit_exceeded_total"`
	Limiter ratelimit.Limiter
}

// newLocationRateLimit keys buckets by the {id} route param, so each order
// has its own budget regardless of which rider device sends the fix.
func newLocationRateLimit(in locationLimitIn) *ratelimit.Middleware {
	return ratelimit.New(in.Logger, in.Rejects, in.Limiter, ratelimit.ByURLParam("id"))
}
