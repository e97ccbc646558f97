package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"primeia/videogate/pkg/gateway/types"
)

// Recovery turns a handler panic into a JSON 500 and logs the stack. Internal
// details never reach the client.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("component", "http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					_ = types.WriteError(w, http.StatusInternalServerError, types.MsgInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
