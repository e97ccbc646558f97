// Package middleware holds the gateway's HTTP middleware.
//
// The server wraps its mux as
//
//	Recovery(Logging(RequestID(CORS(mux))))
//
// and wraps individual API routes with rate limiting, authentication and
// per-route tracing and metrics using Chain.
package middleware
