package ratelimit

import "net/http"

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// KeyFunc extracts the rate-limit key from a request.
type KeyFunc func(r *http.Request) string
