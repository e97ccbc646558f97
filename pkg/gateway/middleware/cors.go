package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"primeia/videogate/pkg/config"
	"primeia/videogate/pkg/gateway/types"
)

// CORS enforces the origin allowlist.
//
// Requests without an Origin header (curl, server-to-server) pass through.
// A request from an origin outside the allowlist is refused with
// 403 {"status":403,"message":"CORS: Origin not allowed"}. Preflight requests
// from allowed origins are answered with 204 and never reach next.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	wildcard := slices.Contains(cfg.AllowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if !wildcard && !slices.Contains(cfg.AllowedOrigins, origin) {
				_ = types.WriteError(w, http.StatusForbidden, types.MsgCORSForbidden)
				return
			}

			// Credentials cannot be combined with a literal "*", so the
			// origin is always echoed.
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if exposed != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposed)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if methods != "" {
					w.Header().Set("Access-Control-Allow-Methods", methods)
				}
				if headers != "" {
					w.Header().Set("Access-Control-Allow-Headers", headers)
				}
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
