package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	cause := errors.New("retention.window: must be positive")

	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{"with path", NewConfigError("/etc/videogate.yaml", cause), "config error in /etc/videogate.yaml: retention.window: must be positive"},
		{"without path", NewConfigError("", cause), "config error: retention.window: must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("errors.Is should find the cause")
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("run", underlyingErr)

	expected := "command run failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is should find the underlying error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"command", NewCommandError("run", errors.New("boom")), ExitFailure},
		{"config", NewConfigError("c.yaml", errors.New("bad")), ExitConfigError},
		{"wrapped config", fmt.Errorf("startup: %w", NewConfigError("", errors.New("bad"))), ExitConfigError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
