package tts

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry manages all registered TTS providers.
//
// The registry is thread-safe and can be accessed concurrently.
// Providers are typically registered during package initialization using init() functions.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// globalRegistry is the default registry used by package-level functions.
var globalRegistry = NewRegistry()

// Default returns the registry that init-time registrations land in.
func Default() *Registry {
	return globalRegistry
}

// Register registers a new TTS provider in the global registry.
//
// This function is typically called from a provider's init() function:
//
//	func init() {
//	    tts.Register(&MyProvider{})
//	}
//
// If a provider with the same name already exists, it will be replaced.
func Register(provider Provider) {
	globalRegistry.Register(provider)
}

// Get retrieves a provider by name from the global registry.
func Get(name string) (Provider, error) {
	return globalRegistry.Get(name)
}

// List returns all registered provider names from the global registry, sorted.
func List() []string {
	return globalRegistry.List()
}

// Register registers a new provider to this registry.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Get retrieves a provider by name from this registry.
//
// Returns an error if the provider is not found.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider '%s' not found", name)
	}
	return provider, nil
}

// List returns all registered provider names from this registry, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Synthesize validates opts and voices text with the named provider.
func (r *Registry) Synthesize(ctx context.Context, providerName, text string, opts *Options) (*Result, error) {
	provider, err := r.Get(providerName)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result, err := provider.Synthesize(ctx, text, opts)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}
	return result, nil
}

// Synthesize is a convenience function over the global registry.
//
// Example:
//
//	result, err := tts.Synthesize(ctx, "dashscope", "你好", &tts.Options{APIKey: key})
func Synthesize(ctx context.Context, providerName, text string, opts *Options) (*Result, error) {
	return globalRegistry.Synthesize(ctx, providerName, text, opts)
}
