// Package pprofserver serves profiling and tracking diagnostics on a
// separate listener, open to loopback and basic-auth protected otherwise.
package pprofserver

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Config stores debug listener credentials. Empty credentials mean loopback only.
type Config struct {
	User string
	Pass string
}

// Stats exposes live tracking state.
type Stats interface {
	ActiveSimulations() int
}

// Handler returns the debug routes: pprof under /debug/pprof and a tracking
// snapshot at /debug/tracking.
func Handler(cfg Config, stats Stats) http.Handler {
	r := chi.NewRouter()
	r.Use(authOrLocalOnly(cfg))
	r.Mount("/debug", chimw.Profiler())
	r.Get("/debug/tracking", func(w http.ResponseWriter, _ *http.Request) {
		active := 0
		if stats != nil {
			active = stats.ActiveSimulations()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"active_simulations": active})
	})
	return r
}

func authOrLocalOnly(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isLoopback(r.RemoteAddr) {
				next.ServeHTTP(w, r)
				return
			}
			u, p, ok := r.BasicAuth()
			if cfg.User == "" || cfg.Pass == "" || !ok || !secureEq(u, cfg.User) || !secureEq(p, cfg.Pass) {
				w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func secureEq(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func isLoopback(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	ip := net.ParseIP(strings.TrimSpace(host))
	return ip != nil && ip.IsLoopback()
}
