package collector

import (
	"sync"

	"github.com/newthinker/albionflip/internal/core"
)

// Registry maps regions to their price providers
type Registry struct {
	mu        sync.RWMutex
	providers map[core.Region]PriceProvider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[core.Region]PriceProvider),
	}
}

// Register sets the provider serving a region
func (r *Registry) Register(region core.Region, p PriceProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[region] = p
}

// Get returns the provider for a region, falling back to the Europe provider
func (r *Registry) Get(region core.Region) (PriceProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[region]; ok {
		return p, true
	}
	p, ok := r.providers[core.RegionEurope]
	return p, ok
}

// Regions returns the registered regions
func (r *Registry) Regions() []core.Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]core.Region, 0, len(r.providers))
	for region := range r.providers {
		result = append(result, region)
	}
	return result
}
