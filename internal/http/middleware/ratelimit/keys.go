package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ClientIP keys requests by the remote host.
func ClientIP(r *http.Request) string {
	return clientIP(r)
}

// ByURLParam keys requests by a chi route parameter, e.g. the order id of a
// rider location push. Requests without the parameter fall back to the client IP.
func ByURLParam(param string) KeyFunc {
	return func(r *http.Request) string {
		if v := strings.TrimSpace(chi.URLParam(r, param)); v != "" {
			return param + ":" + v
		}
		return clientIP(r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
