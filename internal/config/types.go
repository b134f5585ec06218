// Package config loads LeapViz configuration.
//
// Values are layered, lowest precedence first: built-in defaults, the
// leapviz.yaml file, LEAPVIZ_ environment variables, and explicitly set
// command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leapviz/internal/backend"
	"github.com/leapstack-labs/leapviz/pkg/adapter"
)

// Config holds all LeapViz configuration.
type Config struct {
	Output   string        `koanf:"output"`
	Verbose  bool          `koanf:"verbose"`
	LogLevel string        `koanf:"log_level"`
	Backend  BackendConfig `koanf:"backend"`
	UI       UIConfig      `koanf:"ui"`
	Render   RenderConfig  `koanf:"render"`
	Target   *TargetConfig `koanf:"target"`
}

// BackendConfig points at the analysis backend.
type BackendConfig struct {
	URL              string        `koanf:"url"`
	Timeout          time.Duration `koanf:"timeout"`
	RetryAttempts    int           `koanf:"retry_attempts"`
	RetryDelay       time.Duration `koanf:"retry_delay"`
	BreakerThreshold int           `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

// ClientConfig converts the section into a backend client configuration.
func (b BackendConfig) ClientConfig() backend.Config {
	return backend.Config{
		BaseURL:          b.URL,
		Timeout:          b.Timeout,
		RetryAttempts:    b.RetryAttempts,
		RetryDelay:       b.RetryDelay,
		BreakerThreshold: b.BreakerThreshold,
		BreakerTimeout:   b.BreakerTimeout,
	}
}

// UIConfig holds configuration for the web UI server.
type UIConfig struct {
	Port          int           `koanf:"port"`
	AutoOpen      bool          `koanf:"auto_open"`
	SessionSecret string        `koanf:"session_secret"`
	SessionIdle   time.Duration `koanf:"session_idle"`
	MaxConcurrent int           `koanf:"max_concurrent"`
	AskRate       int           `koanf:"ask_rate"`
}

// RenderConfig holds engine options shared by the CLI and the UI.
type RenderConfig struct {
	// Repair enables the key-repair heuristics for agent-produced configs.
	Repair       bool `koanf:"repair"`
	PreviewLimit int  `koanf:"preview_limit"`
}

// TargetConfig describes the local database used by preview, schema and seed.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Database string            `koanf:"database"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
	Params   map[string]any    `koanf:"params"`
}

// AdapterConfig converts the target into an adapter configuration.
func (t *TargetConfig) AdapterConfig() adapter.Config {
	if t == nil {
		return adapter.Config{}
	}
	return adapter.Config{
		Type:     t.Type,
		Path:     t.Database,
		Database: t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}
