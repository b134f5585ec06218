package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Factory creates an unconnected adapter.
type Factory func(*slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	factories  = map[string]Factory{}
	aliases    = map[string]string{}
)

// Register adds an adapter factory under name and any aliases.
// Adapter packages call it from init. Names are case-insensitive.
func Register(name string, factory Factory, alias ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	name = strings.ToLower(name)
	factories[name] = factory
	for _, a := range alias {
		aliases[strings.ToLower(a)] = name
	}
}

// Canonical maps an adapter name or alias to its registered name. Unknown
// names come back lowercased.
func Canonical(name string) string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return canonical(name)
}

func canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, ok := aliases[name]; ok {
		return c
	}
	return name
}

// Get retrieves an adapter factory by name or alias.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := factories[canonical(name)]
	return f, ok
}

// NewAdapter creates an adapter for cfg.Type without connecting it.
// A nil logger is replaced by a discard logger.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger.With("adapter", Canonical(cfg.Type))), nil
}

// Open creates an adapter for cfg.Type and connects it.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Adapter, error) {
	a, err := NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	cfg.Type = Canonical(cfg.Type)
	if err := a.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	return a, nil
}

// ListAdapters returns the registered adapter names, sorted. Aliases are not
// listed.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered reports whether name or alias resolves to an adapter.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// UnknownAdapterError is returned when an unknown adapter type is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %s\nHint: Check target.type in leapviz.yaml or LEAPVIZ_TARGET__TYPE",
		e.Type, strings.Join(e.Available, ", "))
}
