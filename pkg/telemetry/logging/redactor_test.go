package logging

import (
	"log/slog"
	"strings"
	"testing"
)

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name     string
		input    string
		mustHide string
	}{
		{"bearer header", "Authorization: Bearer sb-token_123", "sb-token_123"},
		{"lowercase bearer", "bearer abcdef", "abcdef"},
		{"jwt", "token eyJhbGciOi.eyJzdWIiOi.c2lnbmF0dXJl", "c2lnbmF0dXJl"},
		{"query param", "/upload?api_key=topsecret&x=1", "topsecret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.RedactString(tt.input)
			if strings.Contains(got, tt.mustHide) {
				t.Errorf("RedactString(%q) = %q, still contains %q", tt.input, got, tt.mustHide)
			}
		})
	}
}

func TestRedactor_LeavesPlainText(t *testing.T) {
	r := NewRedactor()
	in := "sweep finished for public/videos"
	if got := r.RedactString(in); got != in {
		t.Errorf("RedactString() = %q, want unchanged", got)
	}
}

func TestRedactor_ReplaceAttr(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"sensitive key", slog.String("X-API-Key", "abcdefgh"), "abcd***"},
		{"short secret", slog.String("token", "abc"), "***"},
		{"plain value", slog.String("path", "/videos/a.mp4"), "/videos/a.mp4"},
		{"pattern in value", slog.String("header", "Bearer xyz"), "Bearer ***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ReplaceAttr(nil, tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("ReplaceAttr() = %q, want %q", got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactor_ReplaceAttrIgnoresNonStrings(t *testing.T) {
	r := NewRedactor()
	got := r.ReplaceAttr(nil, slog.Int("token_count", 5))
	if got.Value.Int64() != 5 {
		t.Errorf("non-string attribute modified: %v", got)
	}
}

func TestRedactAPIKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcd", "***"},
		{"abcdef", "abcd***"},
	}
	for _, tt := range tests {
		if got := RedactAPIKey(tt.input); got != tt.want {
			t.Errorf("RedactAPIKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
