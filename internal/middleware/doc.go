// Package middleware provides the net/http stages that run around every
// handler: recovery, request IDs and logging, CORS, metrics, per-IP rate
// limiting and bearer-token authentication. It also holds the JSON
// request/response helpers shared by the handlers.
//
// Middlewares have the shape func(http.Handler) http.Handler and are
// composed with Chain, outermost first:
//
//	h := middleware.Chain(mux,
//		middleware.WithLogging(logger),
//		middleware.Recover(logger),
//		middleware.CORS(origins),
//	)
package middleware

import "net/http"

// Middleware wraps a handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
