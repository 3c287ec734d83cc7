package theory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cosmoglot/starling/filters"
)

// Sentinel errors for model resolution.
var (
	// ErrUnknownModel indicates a configuration named a model the
	// registry does not provide.
	ErrUnknownModel = errors.New("theory: unknown model name")

	// ErrDuplicateModel indicates a second registration under the same
	// name.
	ErrDuplicateModel = errors.New("theory: model already registered")
)

// Summary is a pretrained theory model for one or more summary
// statistics. Evaluation is assumed pure and stateless per call: the
// prediction is a function of the parameter mapping and the filters
// only. Implementations must be safe for concurrent readers.
type Summary interface {
	// InputNames returns the model's required parameter names in the
	// order it expects them when vectors are assembled for batched
	// evaluation.
	InputNames() []string

	// Predict evaluates the model for one complete parameter mapping
	// and returns the predicted summary statistic after filtering.
	Predict(params map[string]float64, sel filters.Select, sli filters.Slice) ([]float64, error)

	// PredictBatch evaluates the model for a batch of parameter
	// mappings (one slice per parameter, all of equal length) and
	// returns one prediction row per batch entry.
	PredictBatch(params map[string][]float64, sel filters.Select, sli filters.Slice) ([][]float64, error)
}

// UncertaintyPredictor is implemented by models that report a per-bin
// standard deviation for their own prediction. The returned vector has
// one entry per prediction bin; its square is added to the likelihood's
// covariance diagonal when predicted-uncertainty mode is enabled.
type UncertaintyPredictor interface {
	PredictUncertainty(params map[string]float64, sel filters.Select, sli filters.Slice) ([]float64, error)
}

// Factory constructs a Summary for the given list of statistics and the
// model-specific arguments from configuration.
type Factory func(statistics []string, args map[string]any) (Summary, error)

// Registry maps configuration model names to factories. The zero value
// is ready to use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty model registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name. Registering the same name twice
// returns ErrDuplicateModel.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("%q: %w", name, ErrDuplicateModel)
	}
	r.factories[name] = f
	return nil
}

// Resolve constructs the model registered under name. Unknown names
// return ErrUnknownModel listing the registered alternatives.
func (r *Registry) Resolve(name string, statistics []string, args map[string]any) (Summary, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q (registered: %v): %w", name, r.Names(), ErrUnknownModel)
	}
	return f(statistics, args)
}

// Names returns the registered model names in sorted order.
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
