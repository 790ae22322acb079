package provider

import (
	"fmt"
	"slices"
	"sync"
)

// Registry resolves provisioning providers by name.
type Registry struct {
	mu              sync.RWMutex
	providers       map[string]ProvisioningProvider
	defaultProvider string
}

func NewRegistry(defaultProvider string) *Registry {
	return &Registry{
		providers:       make(map[string]ProvisioningProvider),
		defaultProvider: defaultProvider,
	}
}

// Register adds p under p.Name(). Registering a name twice is an error.
func (r *Registry) Register(p ProvisioningProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if name == "" {
		return fmt.Errorf("provider name is required")
	}
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = p
	return nil
}

// Get returns the provider registered as name, or the default provider when
// name is empty.
func (r *Registry) Get(name string) (ProvisioningProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultProvider
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Resolve maps an empty name to the default provider name.
func (r *Registry) Resolve(name string) string {
	if name == "" {
		return r.defaultProvider
	}
	return name
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
