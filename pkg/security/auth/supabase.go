package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"primeia/videogate/pkg/config"
)

// supabaseUserPath is the GoTrue endpoint that resolves a token to its user.
const supabaseUserPath = "/auth/v1/user"

// SupabaseClient verifies access tokens against a Supabase project.
type SupabaseClient struct {
	userURL        string
	publishableKey string
	httpClient     *http.Client
}

// NewSupabaseClient validates the provider settings and returns a client.
func NewSupabaseClient(cfg config.TokenAuthConfig) (*SupabaseClient, error) {
	if cfg.ProviderURL == "" || cfg.PublishableKey == "" {
		return nil, errors.New("supabase provider URL and publishable key must be set")
	}

	base, err := url.Parse(cfg.ProviderURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid supabase provider URL %q", cfg.ProviderURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTokenTimeout
	}

	return &SupabaseClient{
		userURL:        strings.TrimRight(base.String(), "/") + supabaseUserPath,
		publishableKey: cfg.PublishableKey,
		httpClient:     &http.Client{Timeout: timeout},
	}, nil
}

// VerifyToken implements TokenVerifier.
func (c *SupabaseClient) VerifyToken(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("apikey", c.publishableKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token verification request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, providerMessage(resp.Body))
	default:
		return nil, fmt.Errorf("auth provider returned status %d: %s", resp.StatusCode, providerMessage(resp.Body))
	}

	var user User
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode auth provider response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user not found", ErrInvalidToken)
	}
	return &user, nil
}

// providerMessage pulls a readable reason out of a GoTrue error body.
func providerMessage(body io.Reader) string {
	var payload struct {
		Message          string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, s := range []string{payload.Message, payload.ErrorDescription, payload.Error} {
			if s != "" {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "no details"
}
