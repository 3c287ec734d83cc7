package covariance

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/cosmoglot/starling/filters"
)

// Sentinel errors returned by covariance assembly.
var (
	// ErrMissingSource indicates no base covariance source was supplied.
	ErrMissingSource = errors.New("covariance: missing base covariance source")

	// ErrVolumeScalingRequired indicates the source estimates its base
	// covariance from a small-volume ensemble and an explicit volume
	// scaling value is mandatory.
	ErrVolumeScalingRequired = errors.New("covariance: volume scaling must be specified for a small-volume source")

	// ErrBadVolumeScaling indicates a volume scaling value that is not
	// finite and strictly positive.
	ErrBadVolumeScaling = errors.New("covariance: volume scaling must be finite and > 0")

	// ErrDimensionMismatch indicates covariance terms of unequal or zero
	// dimension.
	ErrDimensionMismatch = errors.New("covariance: dimension mismatch")

	// ErrBadSampleCount indicates a Hartlap correction was requested
	// with too few samples for the number of bins.
	ErrBadSampleCount = errors.New("covariance: sample count too small for Hartlap correction")

	// ErrNotPositiveDefinite indicates the assembled matrix failed
	// Cholesky factorization.
	ErrNotPositiveDefinite = errors.New("covariance: matrix is not positive definite")

	// ErrNonFinite indicates a covariance term carries NaN or ±Inf.
	ErrNonFinite = errors.New("covariance: non-finite matrix entry")

	// ErrUnknownSource indicates a configuration named a covariance
	// source the registry does not provide.
	ErrUnknownSource = errors.New("covariance: unknown source name")

	// ErrDuplicateSource indicates a second registration under the same
	// name.
	ErrDuplicateSource = errors.New("covariance: source already registered")
)

// Term is a raw sample covariance estimate together with the number of
// samples that produced it. Samples drives the Hartlap correction.
type Term struct {
	Matrix  *mat.SymDense
	Samples int
}

// Source supplies the raw covariance estimates for a given dataset,
// statistic list and filter configuration. Implementations live outside
// this module (they read simulation suites from disk); tests use
// in-memory fixtures.
type Source interface {
	// SampleCovariance returns the base empirical covariance estimate
	// and its sample count.
	SampleCovariance() (Term, error)

	// EmulatorError returns the emulator-error covariance term. It
	// carries no sample count: it is never Hartlap-corrected.
	EmulatorError() (*mat.SymDense, error)

	// SimulationError returns the simulation-error covariance term and
	// its sample count.
	SimulationError() (Term, error)

	// RequiresVolumeScaling reports whether the base covariance comes
	// from a small-volume ensemble whose scaling must be given
	// explicitly.
	RequiresVolumeScaling() bool
}

// SourceFactory constructs a Source for the dataset, statistics and
// filters named in configuration.
type SourceFactory func(dataset string, statistics []string, sel filters.Select, sli filters.Slice) (Source, error)

// SourceRegistry maps configuration source names to factories. The zero
// value is ready to use.
type SourceRegistry struct {
	mu        sync.RWMutex
	factories map[string]SourceFactory
}

// NewSourceRegistry returns an empty covariance source registry.
func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{factories: make(map[string]SourceFactory)}
}

// Register adds a factory under name; duplicates return
// ErrDuplicateSource.
func (r *SourceRegistry) Register(name string, f SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]SourceFactory)
	}
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("%q: %w", name, ErrDuplicateSource)
	}
	r.factories[name] = f
	return nil
}

// Resolve constructs the source registered under name.
func (r *SourceRegistry) Resolve(name, dataset string, statistics []string, sel filters.Select, sli filters.Slice) (Source, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q (registered: %v): %w", name, r.Names(), ErrUnknownSource)
	}
	return f(dataset, statistics, sel, sli)
}

// Names returns the registered source names in sorted order.
func (r *SourceRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
