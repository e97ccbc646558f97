package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"primeia/videogate/pkg/cli"
	"primeia/videogate/pkg/config"
	"primeia/videogate/pkg/ledger"
	"primeia/videogate/pkg/retention"
	"primeia/videogate/pkg/telemetry/logging"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeTestConfig writes a config rooted in a temp directory and returns its
// path and the directory.
func writeTestConfig(t *testing.T, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
server:
  listen_address: "127.0.0.1:0"
  shutdown_timeout: "5s"
storage:
  directory: %q
ledger:
  driver: "sqlite"
  path: %q
telemetry:
  logging:
    level: "error"
%s`, filepath.Join(dir, "videos"), filepath.Join(dir, "ledger.db"), extra)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, dir
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	for _, want := range []string{"videogate " + Version, "Git Commit:", "Go Version:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	path, _ := writeTestConfig(t, "")

	out, err := execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "✓ Configuration valid") {
		t.Errorf("output = %s", out)
	}
	if !strings.Contains(out, "retention:  24h0m0s, 0 * * * * (America/Mexico_City)") {
		t.Errorf("retention summary missing:\n%s", out)
	}
}

func TestValidateCommand_Invalid(t *testing.T) {
	path, _ := writeTestConfig(t, `
retention:
  window: "-1h"
`)

	_, err := execute(t, "validate", "--config", path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfigError {
		t.Errorf("ExitCode() = %d, want %d", code, cli.ExitConfigError)
	}
	if !strings.Contains(err.Error(), "retention.window") {
		t.Errorf("error = %v", err)
	}
}

func TestRunCommand_DryRun(t *testing.T) {
	path, _ := writeTestConfig(t, "")

	out, err := execute(t, "run", "--config", path, "--dry-run", "--listen", "127.0.0.1:9999")
	if err != nil {
		t.Fatalf("run --dry-run error = %v", err)
	}
	if !strings.Contains(out, "listen:     127.0.0.1:9999") {
		t.Errorf("listen override not applied:\n%s", out)
	}
}

func TestRunCommand_InvalidOverride(t *testing.T) {
	path, _ := writeTestConfig(t, "")

	_, err := execute(t, "run", "--config", path, "--dry-run", "--log-level", "verbose")
	if cli.ExitCode(err) != cli.ExitConfigError {
		t.Errorf("error = %v, want a config error", err)
	}
}

func recordRun(t *testing.T, dbPath string, run retention.Run) {
	t.Helper()
	l, err := ledger.Open(ledger.Config{Driver: "sqlite", Path: dbPath}, logging.Discard())
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	defer l.Close()
	if _, err := l.Record(context.Background(), run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
}

func TestHistoryCommand(t *testing.T) {
	path, dir := writeTestConfig(t, "")
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	recordRun(t, filepath.Join(dir, "ledger.db"), retention.Run{
		Trigger:   retention.TriggerSchedule,
		Directory: filepath.Join(dir, "videos"),
		Window:    24 * time.Hour,
		StartedAt: started,
		Duration:  15 * time.Millisecond,
		Result:    retention.Result{Deleted: 2, Removed: []string{"a.mp4", "b.mp4"}},
	})

	t.Run("table", func(t *testing.T) {
		out, err := execute(t, "history", "--config", path)
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want header + 1 run:\n%s", len(lines), out)
		}
		if !strings.HasPrefix(lines[0], "STARTED") {
			t.Errorf("header = %q", lines[0])
		}
		if !strings.Contains(lines[1], "schedule") || !strings.Contains(lines[1], "15ms") {
			t.Errorf("row = %q", lines[1])
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "history", "--config", path, "--format", "json")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		var runs []ledger.RunRecord
		if err := json.Unmarshal([]byte(out), &runs); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if len(runs) != 1 || runs[0].Deleted != 2 || len(runs[0].Entries) != 2 {
			t.Errorf("runs = %+v", runs)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		if _, err := execute(t, "history", "--config", path, "--format", "xml"); err == nil {
			t.Error("expected an error for an unknown format")
		}
	})
}

func TestHistoryCommand_Empty(t *testing.T) {
	path, _ := writeTestConfig(t, "")

	out, err := execute(t, "history", "--config", path)
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if strings.TrimSpace(out) != "no sweeps recorded" {
		t.Errorf("output = %q", out)
	}
}

func TestHistoryCommand_LedgerDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ledger:\n  enabled: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "history", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "ledger is disabled") {
		t.Errorf("error = %v", err)
	}
}

func TestApp_StartupSweep(t *testing.T) {
	dir := t.TempDir()
	videos := filepath.Join(dir, "videos")
	if err := os.MkdirAll(videos, 0o755); err != nil {
		t.Fatal(err)
	}

	old := filepath.Join(videos, "1600000000000-old.mp4")
	fresh := filepath.Join(videos, "fresh.mp4")
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte("v"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults()
	cfg.Server.ListenAddress = "127.0.0.1:0"
	cfg.Storage.Directory = videos
	cfg.Ledger.Driver = "sqlite"
	cfg.Ledger.Path = filepath.Join(dir, "ledger.db")
	cfg.Storage.WatchDebounce = 20 * time.Millisecond

	a, err := newApp(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := os.Stat(old)
		recorded, _ := a.ledger.Recent(ctx, 1)
		if os.IsNotExist(err) && len(recorded) == 1 && a.server.Addr() != "" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("startup sweep did not delete the expired video")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh video removed: %v", err)
	}

	resp, err := http.Get("http://" + a.server.Addr() + "/ready")
	if err != nil {
		t.Fatal(err)
	}
	var ready map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&ready)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/ready status = %d: %v", resp.StatusCode, ready)
	}

	resp, err = http.Get("http://" + a.server.Addr() + "/api/v1/retention/runs")
	if err != nil {
		t.Fatal(err)
	}
	var runs struct {
		Runs []ledger.RunRecord `json:"runs"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&runs)
	_ = resp.Body.Close()
	if len(runs.Runs) != 1 || runs.Runs[0].Trigger != "startup" || runs.Runs[0].Deleted != 1 {
		t.Errorf("runs = %+v", runs.Runs)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("app did not shut down")
	}
}

func TestNewApp_Errors(t *testing.T) {
	regularFile := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(regularFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "storage path is a file",
			mutate:  func(c *config.Config) { c.Storage.Directory = regularFile },
			wantErr: "failed to open storage",
		},
		{
			name:    "ledger directory is a file",
			mutate:  func(c *config.Config) { c.Ledger.Path = filepath.Join(regularFile, "ledger.db") },
			wantErr: "failed to open ledger",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *config.Config) { c.Retention.Timezone = "Mars/Olympus_Mons" },
			wantErr: "failed to create retention scheduler",
		},
		{
			name: "token auth without provider",
			mutate: func(c *config.Config) {
				c.Security.Token.Enabled = true
				c.Security.Token.ProviderURL = ""
			},
			wantErr: "failed to configure token verification",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := config.Defaults()
			cfg.Storage.Directory = filepath.Join(dir, "videos")
			cfg.Storage.CreateIfMissing = true
			cfg.Ledger.Driver = ledger.DriverPure
			cfg.Ledger.Path = filepath.Join(dir, "ledger.db")
			tt.mutate(cfg)

			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("newApp panicked: %v", r)
				}
			}()

			a, err := newApp(cfg, logging.Discard())
			if err == nil {
				a.Close()
				t.Fatal("newApp() succeeded, want error")
			}
			if a != nil {
				t.Error("newApp() returned an app together with an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
