package middleware

import (
	"net/http"
	"time"
)

// HTTPRecorder receives one call per completed request.
type HTTPRecorder interface {
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

// Metrics records requests under a fixed route name.
func Metrics(route string, rec HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			rec.RecordHTTPRequest(route, r.Method, rw.statusCode, time.Since(start))
		})
	}
}

// Chain applies middlewares so that the first one listed is the outermost.
// Nil entries are skipped.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			h = middlewares[i](h)
		}
	}
	return h
}
