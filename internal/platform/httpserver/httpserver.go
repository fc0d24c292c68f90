// Package httpserver builds the process's http.Server with timeouts sized
// for a cookie-authenticated JSON API.
package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 2 * time.Minute
	// writeSlack keeps WriteTimeout longer than the in-router request
	// timeout so a handler that hits the deadline still flushes its error
	// body instead of having the connection cut mid-response.
	writeSlack = 5 * time.Second
)

// New builds an HTTP server whose read and write deadlines bracket the
// per-request timeout enforced by the middleware chain.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout + writeSlack,
		IdleTimeout:       idleTimeout,
	}
}
