package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials that end up in log attributes: API keys,
// bearer tokens and JWTs.
type Redactor struct {
	patterns []redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			{
				regex:       regexp.MustCompile(`(?i)Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
				replacement: "Bearer ***",
			},
			{
				regex:       regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
				replacement: "***jwt***",
			},
			{
				regex:       regexp.MustCompile(`(?i)(api[-_]?key[=:]\s*)[^\s&]+`),
				replacement: "${1}***",
			},
		},
	}
}

// RedactString replaces credential-looking substrings in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook. Values under
// sensitive keys are masked outright; other strings are pattern-scrubbed.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactAPIKey(a.Value.String()))
	}
	if s := a.Value.String(); s != "" {
		if redacted := r.RedactString(s); redacted != s {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}

// isSensitiveKey checks if a key name indicates sensitive data.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"password", "secret", "token",
		"api_key", "api-key", "apikey", "authorization",
		"publishable_key",
	}
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactAPIKey redacts a credential, keeping only a short prefix.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
