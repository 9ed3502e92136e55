package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/newthinker/albionflip/internal/core"
)

// Registry manages sink instances
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]Sink
	order []string
}

// NewRegistry creates a new sink registry
func NewRegistry() *Registry {
	return &Registry{
		sinks: make(map[string]Sink),
	}
}

// Register adds a sink to the registry
func (r *Registry) Register(s Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.sinks[name]; exists {
		return fmt.Errorf("sink %s already registered", name)
	}

	r.sinks[name] = s
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a sink by name
func (r *Registry) Get(name string) (Sink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.sinks[name]
	if !exists {
		return nil, fmt.Errorf("sink %s not found", name)
	}
	return s, nil
}

// GetAll returns all registered sinks in registration order
func (r *Registry) GetAll() []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Sink, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.sinks[name])
	}
	return result
}

// PublishAll sends trades to every sink. A failing sink does not stop the
// others; failures are returned keyed by sink name.
func (r *Registry) PublishAll(ctx context.Context, trades []core.Trade) map[string]error {
	errs := make(map[string]error)
	for _, s := range r.GetAll() {
		if err := s.Publish(ctx, trades); err != nil {
			errs[s.Name()] = core.WrapError(core.ErrSinkFailed, err)
		}
	}
	return errs
}
