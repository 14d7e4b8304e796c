// Package config holds the workflow service configuration.
//
// Values are layered: DefaultConfig, then a JSON or YAML file, then
// environment variables (optionally from a .env file), then command-line
// flags applied by the caller.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddr            = ":8000"
	defaultObserver        = "slog"
	defaultLogLevel        = "info"
	defaultShutdownTimeout = Duration(10 * time.Second)
)

// EnvPrefix prefixes every variable read by ApplyEnv.
const EnvPrefix = "WORKFLOW"

// Environment variables read by ApplyEnv.
const (
	EnvAddr            = EnvPrefix + "_ADDR"
	EnvLogLevel        = EnvPrefix + "_LOG_LEVEL"
	EnvObserver        = EnvPrefix + "_OBSERVER"
	EnvAllowedOrigins  = EnvPrefix + "_ALLOWED_ORIGINS"
	EnvShutdownTimeout = EnvPrefix + "_SHUTDOWN_TIMEOUT"
)

// envSpec is the environment view of Config. split_words derives the keys
// from the field names; an explicit envconfig tag would also fall back to the
// unprefixed name (ADDR, LOG_LEVEL), which is not wanted here.
type envSpec struct {
	Addr            string        `split_words:"true"`
	LogLevel        string        `split_words:"true"`
	Observer        string        `split_words:"true"`
	AllowedOrigins  []string      `split_words:"true"`
	ShutdownTimeout time.Duration `split_words:"true"`
}

// Config holds initialization parameters for the service process.
type Config struct {
	Server   ServerConfig `json:"server" yaml:"server"`
	Observer string       `json:"observer,omitempty" yaml:"observer,omitempty"`
	LogLevel string       `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	AllowedOrigins  []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	ShutdownTimeout Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
}

// DefaultConfig returns a Config listening on :8000 that allows every origin.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            defaultAddr,
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Observer: defaultObserver,
		LogLevel: defaultLogLevel,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Server.Merge(&source.Server)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
}

// Merge applies non-zero values from source into c.
func (c *ServerConfig) Merge(source *ServerConfig) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if len(source.AllowedOrigins) > 0 {
		c.AllowedOrigins = source.AllowedOrigins
	}
	if source.ShutdownTimeout > 0 {
		c.ShutdownTimeout = source.ShutdownTimeout
	}
}

// LoadConfig reads a config file, merges it with defaults, and returns the
// resulting Config. Files ending in .yaml or .yml are parsed as YAML,
// everything else as JSON.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// ApplyEnv loads the given .env files (a missing file is not an error) and
// merges the WORKFLOW_* variables into c. With no arguments it loads ./.env.
// Variables already set in the process environment take precedence over
// .env values. WORKFLOW_ALLOWED_ORIGINS is a comma-separated list.
//
// Example:
//
//	cfg := config.DefaultConfig()
//	if err := cfg.ApplyEnv(); err != nil {
//	    log.Fatal(err)
//	}
func (c *Config) ApplyEnv(envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var spec envSpec
	if err := envconfig.Process(EnvPrefix, &spec); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	c.Merge(&Config{
		Server: ServerConfig{
			Addr:            spec.Addr,
			AllowedOrigins:  spec.AllowedOrigins,
			ShutdownTimeout: Duration(spec.ShutdownTimeout),
		},
		Observer: spec.Observer,
		LogLevel: spec.LogLevel,
	})
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
