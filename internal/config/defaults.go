package config

import (
	"strings"
	"time"

	"github.com/leapstack-labs/leapviz/pkg/adapter"
)

// Default configuration values.
const (
	DefaultOutput       = "auto" // TTY=text, non-TTY=markdown
	DefaultLogLevel     = "warn"
	DefaultBackendURL   = "http://127.0.0.1:8000"
	DefaultUIPort       = 8765
	DefaultPreviewLimit = 500
	DefaultTargetType   = "duckdb"

	// DefaultSessionSecret is only suitable for local development.
	DefaultSessionSecret = "leapviz-dev-secret-change-in-production" //nolint:gosec
)

func defaults() map[string]any {
	return map[string]any{
		"output":                    DefaultOutput,
		"verbose":                   false,
		"log_level":                 DefaultLogLevel,
		"backend.url":               DefaultBackendURL,
		"backend.timeout":           2 * time.Minute,
		"backend.retry_attempts":    3,
		"backend.retry_delay":       500 * time.Millisecond,
		"backend.breaker_threshold": 5,
		"backend.breaker_timeout":   30 * time.Second,
		"ui.port":                   DefaultUIPort,
		"ui.auto_open":              true,
		"ui.session_secret":         DefaultSessionSecret,
		"ui.session_idle":           30 * time.Minute,
		"ui.max_concurrent":         8,
		"ui.ask_rate":               30,
		"render.repair":             false,
		"render.preview_limit":      DefaultPreviewLimit,
	}
}

// DefaultSchemaForType returns the default schema for a database type.
func DefaultSchemaForType(dbType string) string {
	switch strings.ToLower(dbType) {
	case "postgres", "postgresql":
		return "public"
	default:
		return "main"
	}
}

// ApplyTargetDefaults fills in type-dependent target defaults.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	if t.Type == "" {
		t.Type = DefaultTargetType
	}
	t.Type = adapter.Canonical(t.Type)
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}
