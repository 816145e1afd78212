// Package integrations tracks external provider and model integrations
package integrations

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HelixDevelopment/cognigraph/pkg/types"
)

// Manager registers external AI provider and model integrations and
// reports how many are active. Implementations must be safe for
// concurrent use.
type Manager interface {
	// RegisterProvider records a provider integration
	RegisterProvider(ctx context.Context, provider string, config map[string]string) error

	// RegisterModel records a model integration under a provider
	RegisterModel(ctx context.Context, provider, model string, config map[string]string) error

	// ActiveProviders returns the number of registered providers
	ActiveProviders() int

	// ActiveModels returns the number of registered models
	ActiveModels() int
}

// Registry is the default in-memory Manager
type Registry struct {
	mu        sync.RWMutex
	providers map[string]types.Integration
	models    map[string]types.Integration
}

// NewRegistry creates an empty integration registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]types.Integration),
		models:    make(map[string]types.Integration),
	}
}

// Initialize initializes the registry
func (r *Registry) Initialize(ctx context.Context) error {
	return nil
}

// RegisterProvider records a provider integration. Re-registering a
// provider replaces its configuration.
func (r *Registry) RegisterProvider(ctx context.Context, provider string, config map[string]string) error {
	if provider == "" {
		return fmt.Errorf("provider name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[provider] = types.Integration{
		Provider:  provider,
		Config:    copyConfig(config),
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// RegisterModel records a model integration. The provider is
// registered implicitly when not already present.
func (r *Registry) RegisterModel(ctx context.Context, provider, model string, config map[string]string) error {
	if provider == "" {
		return fmt.Errorf("provider name is required")
	}
	if model == "" {
		return fmt.Errorf("model name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if _, exists := r.providers[provider]; !exists {
		r.providers[provider] = types.Integration{
			Provider:  provider,
			CreatedAt: now,
		}
	}

	r.models[provider+"/"+model] = types.Integration{
		Provider:  provider,
		Model:     model,
		Config:    copyConfig(config),
		CreatedAt: now,
	}
	return nil
}

// ActiveProviders returns the number of registered providers
func (r *Registry) ActiveProviders() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// ActiveModels returns the number of registered models
func (r *Registry) ActiveModels() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// List returns all registered integrations sorted by provider and
// model for stable output
func (r *Registry) List() []types.Integration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]types.Integration, 0, len(r.providers)+len(r.models))
	for _, integration := range r.providers {
		all = append(all, integration)
	}
	for _, integration := range r.models {
		all = append(all, integration)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Provider != all[j].Provider {
			return all[i].Provider < all[j].Provider
		}
		return all[i].Model < all[j].Model
	})
	return all
}

func copyConfig(config map[string]string) map[string]string {
	if len(config) == 0 {
		return nil
	}
	out := make(map[string]string, len(config))
	for k, v := range config {
		out[k] = v
	}
	return out
}
