package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"primeia/videogate/pkg/gateway/types"
	"primeia/videogate/pkg/telemetry/logging"
)

var defaultSources = []APIKeySource{
	{Type: "header", Name: "X-API-Key"},
	{Type: "header", Name: "Authorization", Scheme: "Bearer"},
}

func TestAPIKeyMiddleware_Handle(t *testing.T) {
	validator := NewAPIKeyValidator([]*APIKeyInfo{
		{Key: "valid-key", UserID: "user-123", Enabled: true},
		{Key: "old-key", UserID: "user-456", Enabled: false},
	})

	tests := []struct {
		name        string
		sources     []APIKeySource
		header      map[string]string
		target      string
		wantStatus  int
		wantMessage string
	}{
		{
			name:       "x-api-key header",
			header:     map[string]string{"X-API-Key": "valid-key"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer authorization",
			header:     map[string]string{"Authorization": "Bearer valid-key"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "lowercase scheme",
			header:     map[string]string{"Authorization": "bearer valid-key"},
			wantStatus: http.StatusOK,
		},
		{
			name:        "missing key",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: types.MsgAPIKeyRequired,
		},
		{
			name:        "authorization without scheme",
			header:      map[string]string{"Authorization": "valid-key"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: types.MsgAPIKeyRequired,
		},
		{
			name:        "wrong key",
			header:      map[string]string{"X-API-Key": "nope"},
			wantStatus:  http.StatusForbidden,
			wantMessage: types.MsgAPIKeyInvalid,
		},
		{
			name:        "disabled key",
			header:      map[string]string{"X-API-Key": "old-key"},
			wantStatus:  http.StatusForbidden,
			wantMessage: types.MsgAPIKeyInvalid,
		},
		{
			name:       "query source",
			sources:    []APIKeySource{{Type: "query", Name: "api_key"}},
			target:     "/api/v1/upload-video?api_key=valid-key",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := tt.sources
			if sources == nil {
				sources = defaultSources
			}
			mw := NewAPIKeyMiddleware(validator, sources, logging.Discard())

			var gotInfo *APIKeyInfo
			var gotUserID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotInfo, _ = GetAPIKeyInfo(r.Context())
				gotUserID = logging.GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			target := tt.target
			if target == "" {
				target = "/api/v1/upload-video"
			}
			req := httptest.NewRequest(http.MethodPost, target, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			mw.Handle(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotInfo == nil || gotInfo.UserID != "user-123" {
					t.Errorf("key info in context = %+v", gotInfo)
				}
				if gotUserID != "user-123" {
					t.Errorf("log user id = %q", gotUserID)
				}
				return
			}

			var body types.Response
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Status != tt.wantStatus || body.Message != tt.wantMessage {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestCutScheme(t *testing.T) {
	tests := []struct {
		value  string
		want   string
		wantOK bool
	}{
		{"Bearer abc", "abc", true},
		{"BEARER abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"Bearerabc", "", false},
	}
	for _, tt := range tests {
		got, ok := cutScheme(tt.value, "Bearer")
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("cutScheme(%q) = %q, %v; want %q, %v", tt.value, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPrincipal(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"anonymous", ctx, ""},
		{"api key", context.WithValue(ctx, apiKeyInfoKey, &APIKeyInfo{UserID: "uploader"}), "uploader"},
		{"verified user", withUser(ctx, &User{ID: "alice-id"}), "alice-id"},
		{
			"user wins over key",
			withUser(context.WithValue(ctx, apiKeyInfoKey, &APIKeyInfo{UserID: "uploader"}), &User{ID: "alice-id"}),
			"alice-id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Principal(tt.ctx); got != tt.want {
				t.Errorf("Principal() = %q, want %q", got, tt.want)
			}
		})
	}
}
