package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"primeia/videogate/pkg/config"
)

func newSupabaseStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("apikey") != "sb_publishable_test" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"msg":"No API key found in request"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.Header.Get("Authorization") {
		case "Bearer valid-jwt":
			_, _ = w.Write([]byte(`{"id":"8d0f","email":"ana@primeia.app","role":"authenticated","aud":"authenticated"}`))
		case "Bearer empty-user":
			_, _ = w.Write([]byte(`{}`))
		case "Bearer broken":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream failure"))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"msg":"invalid JWT: token is expired"}`))
		}
	}))
}

func TestNewSupabaseClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TokenAuthConfig
		wantErr bool
	}{
		{"valid", config.TokenAuthConfig{ProviderURL: "https://x.supabase.co", PublishableKey: "k"}, false},
		{"trailing slash", config.TokenAuthConfig{ProviderURL: "https://x.supabase.co/", PublishableKey: "k"}, false},
		{"missing url", config.TokenAuthConfig{PublishableKey: "k"}, true},
		{"missing key", config.TokenAuthConfig{ProviderURL: "https://x.supabase.co"}, true},
		{"relative url", config.TokenAuthConfig{ProviderURL: "x.supabase.co", PublishableKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewSupabaseClient(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSupabaseClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && client.userURL != "https://x.supabase.co/auth/v1/user" {
				t.Errorf("userURL = %q", client.userURL)
			}
		})
	}
}

func TestSupabaseClient_VerifyToken(t *testing.T) {
	server := newSupabaseStub(t)
	defer server.Close()

	client, err := NewSupabaseClient(config.TokenAuthConfig{
		ProviderURL:    server.URL,
		PublishableKey: "sb_publishable_test",
		Timeout:        2 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		token       string
		wantID      string
		wantInvalid bool
		wantErr     bool
		errContains string
	}{
		{name: "valid", token: "valid-jwt", wantID: "8d0f"},
		{name: "expired", token: "expired-jwt", wantInvalid: true, wantErr: true, errContains: "token is expired"},
		{name: "no user", token: "empty-user", wantInvalid: true, wantErr: true},
		{name: "provider error", token: "broken", wantErr: true, errContains: "status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := client.VerifyToken(context.Background(), tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VerifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrInvalidToken) != tt.wantInvalid {
				t.Errorf("errors.Is(err, ErrInvalidToken) = %v, want %v (err = %v)", !tt.wantInvalid, tt.wantInvalid, err)
			}
			if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, want it to contain %q", err, tt.errContains)
			}
			if !tt.wantErr && user.ID != tt.wantID {
				t.Errorf("user.ID = %q, want %q", user.ID, tt.wantID)
			}
		})
	}
}

func TestSupabaseClient_Unreachable(t *testing.T) {
	server := newSupabaseStub(t)
	url := server.URL
	server.Close()

	client, err := NewSupabaseClient(config.TokenAuthConfig{ProviderURL: url, PublishableKey: "sb_publishable_test"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.VerifyToken(context.Background(), "valid-jwt")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Error("transport failure must not be reported as an invalid token")
	}
}
