package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quantmath/quantmath/internal/core"
)

// Registry manages collector plugins
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
	recorder   FetchRecorder
}

// NewRegistry creates a new collector registry
func NewRegistry() *Registry {
	return &Registry{
		collectors: make(map[string]Collector),
	}
}

// SetRecorder sets the fetch outcome recorder.
func (r *Registry) SetRecorder(rec FetchRecorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = rec
}

// Register adds a collector to the registry
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Name()] = c
}

// Get retrieves a collector by name
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	return c, ok
}

// Names returns the registered collector names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch validates the range, runs the named collector and records the outcome.
func (r *Registry) Fetch(ctx context.Context, name, symbol, period, interval string) ([]core.Candle, error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown collector %q, registered: %v", name, r.Names()))
	}
	if err := ValidateRange(period, interval); err != nil {
		return nil, core.WrapError(core.ErrBadRequest, err)
	}

	candles, err := c.FetchHistory(ctx, symbol, period, interval)

	r.mu.RLock()
	rec := r.recorder
	r.mu.RUnlock()
	if rec != nil {
		rec.RecordFetch(name, err)
	}

	return candles, err
}
