// Package httputil holds small helpers shared by the HTTP layer.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client address for a request. With
// trustProxy set, the X-Forwarded-For and X-Real-IP headers are consulted
// first; otherwise only RemoteAddr is used. Enable trustProxy only when a
// trusted reverse proxy sets those headers.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := forwardedFor(r); ip != "" {
			return ip
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests.
		return r.RemoteAddr
	}
	return host
}

// forwardedFor returns the leftmost entry of X-Forwarded-For, which is the
// original client in a well-behaved proxy chain.
func forwardedFor(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return ""
	}
	if i := strings.IndexByte(xff, ','); i > 0 {
		xff = xff[:i]
	}
	return strings.TrimSpace(xff)
}
