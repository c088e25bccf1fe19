// Package stools holds small HTTP helpers shared by the server and its
// tests.
package stools

import (
	"net"
	"net/http"
	"strings"
)

// Middleware decorates a handler.
type Middleware = func(http.HandlerFunc) http.HandlerFunc

// AdaptHandler applies middlewares to h so that the first one listed is the
// outermost.
func AdaptHandler(h http.HandlerFunc, middlewares ...Middleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// ClientIP is the host of RemoteAddr. With trustProxy it is instead the last
// X-Forwarded-For hop, the one the proxy appended; earlier hops are client
// supplied.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Values("X-Forwarded-For"); len(fwd) > 0 {
			hops := strings.Split(fwd[len(fwd)-1], ",")
			if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
				return last
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
