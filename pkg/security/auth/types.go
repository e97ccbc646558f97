package auth

import (
	"context"
	"errors"
)

// Sentinel errors returned by validators and verifiers.
var (
	// ErrMissingCredentials means the request carried no key or token.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidAPIKey means the key is unknown.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrAPIKeyDisabled means the key is known but switched off.
	ErrAPIKeyDisabled = errors.New("API key disabled")

	// ErrInvalidToken means the auth provider rejected the bearer token.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrMalformedAuthorization means the Authorization header is not
	// "Bearer <token>".
	ErrMalformedAuthorization = errors.New("malformed authorization header")
)

// APIKeyInfo represents an API key with metadata.
type APIKeyInfo struct {
	Key     string
	UserID  string
	Enabled bool
}

// User is the identity returned by the auth provider for a verified token.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"`
	Audience     string         `json:"aud,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// TokenVerifier checks a bearer token with the auth provider.
//
// Implementations return an error wrapping ErrInvalidToken when the provider
// rejects the token; any other error is a verification failure.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*User, error)
}

type contextKey string

// #nosec G101 - These are context key constants, not credentials
const (
	apiKeyInfoKey contextKey = "api_key_info"
	userKey       contextKey = "auth_user"
)

// GetAPIKeyInfo retrieves API key info from request context.
func GetAPIKeyInfo(ctx context.Context) (*APIKeyInfo, bool) {
	info, ok := ctx.Value(apiKeyInfoKey).(*APIKeyInfo)
	return info, ok
}

// GetUser retrieves the verified user from request context.
func GetUser(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey).(*User)
	return user, ok
}

// Principal names whoever authenticated the request: the verified user's ID,
// else the user the API key belongs to. It is "" for anonymous requests.
func Principal(ctx context.Context) string {
	if user, ok := GetUser(ctx); ok && user.ID != "" {
		return user.ID
	}
	if info, ok := GetAPIKeyInfo(ctx); ok {
		return info.UserID
	}
	return ""
}

func withUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
