package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"primeia/videogate/pkg/gateway/types"
	"primeia/videogate/pkg/telemetry/logging"
)

// TokenMiddleware authenticates requests with bearer tokens checked by a
// TokenVerifier.
type TokenMiddleware struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewTokenMiddleware creates bearer token middleware around verifier.
func NewTokenMiddleware(verifier TokenVerifier, logger *slog.Logger) *TokenMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenMiddleware{
		verifier: verifier,
		logger:   logger.With("component", "auth"),
	}
}

// Require rejects requests without a valid bearer token. Missing, malformed
// and rejected tokens get 401; a verifier failure gets 500.
func (m *TokenMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		switch {
		case errors.Is(err, ErrMissingCredentials):
			_ = types.WriteError(w, http.StatusUnauthorized, types.MsgAuthRequired)
			return
		case err != nil:
			_ = types.WriteError(w, http.StatusUnauthorized, types.MsgAuthFormat)
			return
		}

		user, err := m.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				m.logger.WarnContext(r.Context(), "rejected bearer token",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				_ = types.WriteErrorCause(w, http.StatusUnauthorized, types.MsgTokenInvalid, err)
				return
			}
			m.logger.ErrorContext(r.Context(), "token verification failed",
				"error", err,
				"path", r.URL.Path,
			)
			_ = types.WriteErrorCause(w, http.StatusInternalServerError, types.MsgTokenVerifyFailed, err)
			return
		}

		ctx := logging.WithUserID(withUser(r.Context(), user), user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches the user when a valid bearer token is present and never
// rejects the request.
func (m *TokenMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				m.logger.WarnContext(r.Context(), "optional token verification failed", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := logging.WithUserID(withUser(r.Context(), user), user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// It returns ErrMissingCredentials when the header is absent and
// ErrMalformedAuthorization when it is not exactly two parts with the
// Bearer scheme.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingCredentials
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMalformedAuthorization
	}
	return parts[1], nil
}
