package asr

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry manages all registered ASR providers.
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

// Register registers a new ASR provider in the global registry.
//
// This function is typically called from a provider's init() function:
//
//	func init() {
//	    asr.Register(&MyProvider{})
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

// List returns all registered provider names from the global registry,
// sorted.
func List() []string {
	return globalRegistry.List()
}

// Register registers a new provider to this registry.
//
// If a provider with the same name already exists, it will be replaced.
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

// Transcribe creates a job on the named provider and runs it to completion.
//
// This is the recommended way to use the library for most use cases.
//
// Parameters:
//   - ctx: Context for cancellation; it is checked between upload parts and poll attempts
//   - providerName: Name of the provider to use (e.g., "jianying", "bijian")
//   - audio: The extracted audio buffer
//   - opts: Provider-specific options (can be nil for defaults)
//
// Example:
//
//	result, err := asr.Transcribe(ctx, "jianying", audio, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Text)
func (r *Registry) Transcribe(ctx context.Context, providerName string, audio []byte, opts FetchOptions) (*StandardResult, error) {
	provider, err := r.Get(providerName)
	if err != nil {
		return nil, err
	}

	job, err := provider.NewJob(opts)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return Run(ctx, job, audio)
}

// Transcribe runs a job on a provider from the global registry.
func Transcribe(ctx context.Context, providerName string, audio []byte, opts FetchOptions) (*StandardResult, error) {
	return globalRegistry.Transcribe(ctx, providerName, audio, opts)
}
