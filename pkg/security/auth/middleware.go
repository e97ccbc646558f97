package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"primeia/videogate/pkg/config"
	"primeia/videogate/pkg/gateway/types"
	"primeia/videogate/pkg/telemetry/logging"
)

// APIKeySource defines where to extract API keys from.
type APIKeySource struct {
	Type   string // header, query
	Name   string // Header name or query param
	Scheme string // "Bearer", etc. (optional)
}

// SourcesFromConfig converts configured sources.
func SourcesFromConfig(sources []config.APIKeySource) []APIKeySource {
	out := make([]APIKeySource, 0, len(sources))
	for _, s := range sources {
		out = append(out, APIKeySource{Type: s.Type, Name: s.Name, Scheme: s.Scheme})
	}
	return out
}

// APIKeyMiddleware is HTTP middleware for API key authentication.
// A missing key is answered with 401, an unknown or disabled key with 403.
type APIKeyMiddleware struct {
	validator *APIKeyValidator
	sources   []APIKeySource
	logger    *slog.Logger
}

// NewAPIKeyMiddleware creates a new API key authentication middleware.
func NewAPIKeyMiddleware(validator *APIKeyValidator, sources []APIKeySource, logger *slog.Logger) *APIKeyMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyMiddleware{
		validator: validator,
		sources:   sources,
		logger:    logger.With("component", "auth"),
	}
}

// Handle wraps an HTTP handler with API key authentication.
func (m *APIKeyMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := m.extractAPIKey(r)
		if apiKey == "" {
			m.logger.WarnContext(r.Context(), "missing API key",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			_ = types.WriteError(w, http.StatusUnauthorized, types.MsgAPIKeyRequired)
			return
		}

		keyInfo, err := m.validator.Validate(apiKey)
		if err != nil {
			m.logger.WarnContext(r.Context(), "rejected API key",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			_ = types.WriteError(w, http.StatusForbidden, types.MsgAPIKeyInvalid)
			return
		}

		ctx := context.WithValue(r.Context(), apiKeyInfoKey, keyInfo)
		if keyInfo.UserID != "" {
			ctx = logging.WithUserID(ctx, keyInfo.UserID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAPIKey returns the first key found in the configured sources.
func (m *APIKeyMiddleware) extractAPIKey(r *http.Request) string {
	for _, source := range m.sources {
		switch source.Type {
		case "header":
			value := strings.TrimSpace(r.Header.Get(source.Name))
			if value == "" {
				continue
			}
			if source.Scheme == "" {
				return value
			}
			if token, ok := cutScheme(value, source.Scheme); ok {
				return token
			}

		case "query":
			if value := r.URL.Query().Get(source.Name); value != "" {
				return value
			}
		}
	}
	return ""
}

// cutScheme strips "<scheme> " from value, matching the scheme
// case-insensitively.
func cutScheme(value, scheme string) (string, bool) {
	prefix := scheme + " "
	if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(value[len(prefix):])
	return token, token != ""
}
