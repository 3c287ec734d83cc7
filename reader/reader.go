package reader

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cosmoglot/starling/filters"
)

// Sentinel errors for source resolution.
var (
	// ErrUnknownSource indicates a configuration named a data source the
	// registry does not provide.
	ErrUnknownSource = errors.New("reader: unknown source name")

	// ErrDuplicateSource indicates a second registration under the same
	// name.
	ErrDuplicateSource = errors.New("reader: source already registered")
)

// Source loads observations and their provenance parameters. The args
// mapping carries per-call selectors (e.g. cosmology index, HOD index)
// taken verbatim from configuration.
type Source interface {
	// Observation returns the measured summary statistic identified by
	// args, with filters already applied.
	Observation(args map[string]any) ([]float64, error)

	// ParametersFor returns the true underlying parameter values of the
	// observation identified by args.
	ParametersFor(args map[string]any) (map[string]float64, error)
}

// Factory constructs a Source for the given statistics and filters plus
// source-specific constructor arguments from configuration.
type Factory func(statistics []string, sel filters.Select, sli filters.Slice, args map[string]any) (Source, error)

// Registry maps configuration source names to factories. The zero value
// is ready to use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty source registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name; duplicates return
// ErrDuplicateSource.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("%q: %w", name, ErrDuplicateSource)
	}
	r.factories[name] = f
	return nil
}

// Resolve constructs the source registered under name.
func (r *Registry) Resolve(name string, statistics []string, sel filters.Select, sli filters.Slice, args map[string]any) (Source, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q (registered: %v): %w", name, r.Names(), ErrUnknownSource)
	}
	return f(statistics, sel, sli, args)
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
