package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/workflow/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg.Server.Addr != ":8000" {
		t.Errorf("addr = %q, want %q", cfg.Server.Addr, ":8000")
	}
	if diff := cmp.Diff([]string{"*"}, cfg.Server.AllowedOrigins); diff != "" {
		t.Errorf("allowed origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Server.ShutdownTimeout.Std() != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Observer != "slog" || cfg.LogLevel != "info" {
		t.Errorf("observer=%q log_level=%q", cfg.Observer, cfg.LogLevel)
	}
}

func TestMerge(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Merge(&config.Config{
		Server:   config.ServerConfig{Addr: ":9000"},
		LogLevel: "debug",
	})

	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %q, want %q", cfg.Server.Addr, ":9000")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Observer != "slog" {
		t.Errorf("zero observer overwrote default: %q", cfg.Observer)
	}
	if len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("zero origins overwrote default: %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "workflow.json",
			content: `{
				"server": {"addr": ":9090", "allowed_origins": ["http://localhost:3000"], "shutdown_timeout": "3s"},
				"observer": "noop"
			}`,
		},
		{
			name: "yaml",
			file: "workflow.yaml",
			content: `server:
  addr: ":9090"
  allowed_origins:
    - http://localhost:3000
  shutdown_timeout: 3s
observer: noop
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadConfig(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadConfig() failed: %v", err)
			}

			want := config.Config{
				Server: config.ServerConfig{
					Addr:            ":9090",
					AllowedOrigins:  []string{"http://localhost:3000"},
					ShutdownTimeout: config.Duration(3 * time.Second),
				},
				Observer: "noop",
				LogLevel: "info",
			}
			if diff := cmp.Diff(want, *cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "missing file", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.json") }},
		{name: "malformed json", path: func(t *testing.T) string { return writeFile(t, "bad.json", "{") }},
		{name: "bad duration", path: func(t *testing.T) string {
			return writeFile(t, "bad.yml", "server:\n  shutdown_timeout: soon\n")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.LoadConfig(tt.path(t)); err == nil {
				t.Error("LoadConfig() succeeded, want error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(config.EnvAddr, ":7000")
	t.Setenv(config.EnvAllowedOrigins, "http://a.test,http://b.test")
	t.Setenv(config.EnvShutdownTimeout, "250ms")

	envFile := writeFile(t, ".env", "WORKFLOW_ADDR=:6000\nWORKFLOW_LOG_LEVEL=debug\n")
	t.Cleanup(func() { os.Unsetenv(config.EnvLogLevel) })

	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(envFile); err != nil {
		t.Fatalf("ApplyEnv() failed: %v", err)
	}

	if cfg.Server.Addr != ":7000" {
		t.Errorf("addr = %q, want process env to win over .env", cfg.Server.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want %q from .env", cfg.LogLevel, "debug")
	}
	if diff := cmp.Diff([]string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins); diff != "" {
		t.Errorf("allowed origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Server.ShutdownTimeout.Std() != 250*time.Millisecond {
		t.Errorf("shutdown timeout = %v, want 250ms", cfg.Server.ShutdownTimeout)
	}
	if cfg.Observer != "slog" {
		t.Errorf("unset observer overwrote default: %q", cfg.Observer)
	}
}

func TestApplyEnv_IgnoresUnprefixedNames(t *testing.T) {
	t.Setenv("ADDR", ":5000")
	t.Setenv("LOG_LEVEL", "error")

	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("ApplyEnv() failed: %v", err)
	}

	if cfg.Server.Addr != ":8000" || cfg.LogLevel != "info" {
		t.Errorf("addr=%q log_level=%q, want defaults", cfg.Server.Addr, cfg.LogLevel)
	}
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	t.Setenv(config.EnvShutdownTimeout, "soon")

	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), ".env")); err == nil {
		t.Error("ApplyEnv() succeeded with an invalid duration, want error")
	}
}

func TestApplyEnv_MissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("ApplyEnv() with missing file failed: %v", err)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := config.Config{LogLevel: tt.in}
			got, err := cfg.Level()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Level() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}
