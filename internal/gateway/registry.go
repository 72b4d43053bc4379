// ABOUTME: Registry of generation providers, keyed by name.
// ABOUTME: Backends register a factory in init() and are opened by provider name.

package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ProviderConfig is the provider-independent subset of backend settings.
type ProviderConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Factory builds a Backend from cfg.
type Factory func(ctx context.Context, cfg ProviderConfig) (Backend, error)

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

// Register adds a provider factory. Registering a name twice panics.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("provider %q already registered", name))
	}
	registry[name] = f
}

// Open creates a backend for the named provider.
func Open(ctx context.Context, name string, cfg ProviderConfig) (Backend, error) {
	mu.RLock()
	f, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", name, Providers())
	}
	return f(ctx, cfg)
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
