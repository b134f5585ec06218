package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapviz/pkg/adapter"
)

// File names searched for, in order.
var FileNames = []string{"leapviz.yaml", "leapviz.yml"}

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: LEAPVIZ_BACKEND__URL sets backend.url.
const EnvPrefix = "LEAPVIZ_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names onto config keys where kebab-to-snake is not enough.
var flagKeys = map[string]string{
	"backend":     "backend.url",
	"timeout":     "backend.timeout",
	"port":        "ui.port",
	"repair":      "render.repair",
	"limit":       "render.preview_limit",
	"target-type": "target.type",
	"database":    "target.database",
}

type (
	loggerKey struct{}
	configKey struct{}
)

// Loaded is a loaded configuration plus where it came from.
type Loaded struct {
	*Config
	// File is the config file that was read, empty when none was found.
	File string
}

// Load builds the configuration from defaults, the config file, environment
// and flags. cfgFile may be empty to search the working directory and its
// parents. Only flags that were explicitly set override other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Loaded, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := FindConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
			TagName:          "koanf",
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{}
	}
	ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Loaded{Config: &cfg, File: path}, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// FindConfigFile returns explicit when set, otherwise the first config file
// found in the working directory or its parents.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for range maxUpwardSearchLevels {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Validate checks values that would otherwise fail late and obscurely.
func (c *Config) Validate() error {
	switch c.Output {
	case "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("output must be one of auto, text, markdown, json (got %q)", c.Output)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("backend.url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.url must be an http(s) URL (got %q)", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if c.Backend.RetryAttempts < 1 {
		return fmt.Errorf("backend.retry_attempts must be at least 1")
	}

	if c.UI.Port < 0 || c.UI.Port > 65535 {
		return fmt.Errorf("ui.port out of range: %d", c.UI.Port)
	}
	if c.Render.PreviewLimit < 0 {
		return fmt.Errorf("render.preview_limit must not be negative")
	}
	return nil
}

// ValidateTarget checks that the target's adapter is compiled in.
func (c *Config) ValidateTarget() error {
	if c.Target == nil || c.Target.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(c.Target.Type) {
		return &adapter.UnknownAdapterError{Type: c.Target.Type, Available: adapter.ListAdapters()}
	}
	return nil
}

// ParseLevel parses a slog level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// NewLogger builds the CLI's stderr logger. Verbose forces debug level.
func NewLogger(w io.Writer, c *Config) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithConfig stores the loaded configuration in ctx.
func WithConfig(ctx context.Context, cfg *Loaded) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the configuration stored by WithConfig.
func FromContext(ctx context.Context) (*Loaded, bool) {
	if ctx == nil {
		return nil, false
	}
	cfg, ok := ctx.Value(configKey{}).(*Loaded)
	return cfg, ok && cfg != nil
}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() any {
	return loggerKey{}
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns. Unset variables are left as is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

func expandTargetEnvVars(t *TargetConfig) {
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
	for k, v := range t.Options {
		t.Options[k] = expandEnvVars(v)
	}
}
