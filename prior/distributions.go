package prior

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sentinel errors for distribution resolution.
var (
	// ErrUnknownDistribution indicates a configuration named a kind the
	// registry does not provide. Raised at setup, never at sampling.
	ErrUnknownDistribution = errors.New("prior: unknown distribution kind")

	// ErrDuplicateDistribution indicates a second registration under the
	// same kind name.
	ErrDuplicateDistribution = errors.New("prior: distribution kind already registered")

	// ErrBadDistributionParams indicates missing or nonsensical
	// kind-specific parameters.
	ErrBadDistributionParams = errors.New("prior: invalid distribution parameters")
)

// Distribution is a univariate prior. The gonum distuv types satisfy it
// directly.
type Distribution interface {
	// Rand draws one value.
	Rand() float64
	// LogProb returns the log of the density at x.
	LogProb(x float64) float64
	// Quantile returns the inverse CDF at p in [0,1]. Sampling backends
	// that walk the unit hypercube map their coordinates through it.
	Quantile(p float64) float64
}

// Factory constructs a Distribution from kind-specific parameters and a
// random source. Parameters arrive already normalized (see
// NormalizeLocScale) and must not be mutated.
type Factory func(params map[string]float64, src rand.Source) (Distribution, error)

// NormalizeLocScale translates the two specially-spelled kinds into
// their location/scale representation:
//
//	uniform: loc = min,  scale = max − min
//	norm:    loc = mean, scale = dispersion
//
// This translation is a required normalization step, not an
// optimization: the underlying constructors consume loc/scale only.
// The input map is never mutated; the returned map is a fresh copy for
// every kind, so resolution stays idempotent.
func NormalizeLocScale(kind string, params map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(params))
	for k, v := range params {
		out[k] = v
	}
	switch kind {
	case "uniform":
		minV, okMin := out["min"]
		maxV, okMax := out["max"]
		if !okMin || !okMax {
			return nil, fmt.Errorf("uniform needs min and max: %w", ErrBadDistributionParams)
		}
		if maxV <= minV {
			return nil, fmt.Errorf("uniform max %v <= min %v: %w", maxV, minV, ErrBadDistributionParams)
		}
		delete(out, "min")
		delete(out, "max")
		out["loc"] = minV
		out["scale"] = maxV - minV
	case "norm":
		mean, okMean := out["mean"]
		disp, okDisp := out["dispersion"]
		if !okMean || !okDisp {
			return nil, fmt.Errorf("norm needs mean and dispersion: %w", ErrBadDistributionParams)
		}
		if disp <= 0 || math.IsInf(disp, 0) || math.IsNaN(disp) {
			return nil, fmt.Errorf("norm dispersion %v: %w", disp, ErrBadDistributionParams)
		}
		delete(out, "mean")
		delete(out, "dispersion")
		out["loc"] = mean
		out["scale"] = disp
	}
	return out, nil
}

// Registry maps distribution kind names to factories. NewRegistry
// preloads the distuv-backed builtin kinds; callers may register more.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the builtin kinds registered:
// uniform, norm, lognorm, expon, beta.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for kind, f := range builtins {
		r.factories[kind] = f
	}
	return r
}

// Register adds a factory under kind; duplicates return
// ErrDuplicateDistribution.
func (r *Registry) Register(kind string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, dup := r.factories[kind]; dup {
		return fmt.Errorf("%q: %w", kind, ErrDuplicateDistribution)
	}
	r.factories[kind] = f
	return nil
}

// Resolve normalizes params for kind and constructs the distribution.
// Unknown kinds return ErrUnknownDistribution listing the alternatives.
func (r *Registry) Resolve(kind string, params map[string]float64, src rand.Source) (Distribution, error) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q (registered: %v): %w", kind, r.Kinds(), ErrUnknownDistribution)
	}
	normalized, err := NormalizeLocScale(kind, params)
	if err != nil {
		return nil, err
	}
	return f(normalized, src)
}

// Kinds returns the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// need fetches a required parameter or fails with
// ErrBadDistributionParams naming it.
func need(params map[string]float64, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing %q: %w", key, ErrBadDistributionParams)
	}
	return v, nil
}

// builtins holds the distuv-backed factories. Each consumes the
// normalized parameter spelling.
var builtins = map[string]Factory{
	"uniform": func(p map[string]float64, src rand.Source) (Distribution, error) {
		loc, err := need(p, "loc")
		if err != nil {
			return nil, err
		}
		scale, err := need(p, "scale")
		if err != nil {
			return nil, err
		}
		return distuv.Uniform{Min: loc, Max: loc + scale, Src: src}, nil
	},
	"norm": func(p map[string]float64, src rand.Source) (Distribution, error) {
		loc, err := need(p, "loc")
		if err != nil {
			return nil, err
		}
		scale, err := need(p, "scale")
		if err != nil {
			return nil, err
		}
		return distuv.Normal{Mu: loc, Sigma: scale, Src: src}, nil
	},
	"lognorm": func(p map[string]float64, src rand.Source) (Distribution, error) {
		loc, err := need(p, "loc")
		if err != nil {
			return nil, err
		}
		scale, err := need(p, "scale")
		if err != nil {
			return nil, err
		}
		if scale <= 0 {
			return nil, fmt.Errorf("lognorm scale %v: %w", scale, ErrBadDistributionParams)
		}
		return distuv.LogNormal{Mu: loc, Sigma: scale, Src: src}, nil
	},
	"expon": func(p map[string]float64, src rand.Source) (Distribution, error) {
		rate, err := need(p, "rate")
		if err != nil {
			return nil, err
		}
		if rate <= 0 {
			return nil, fmt.Errorf("expon rate %v: %w", rate, ErrBadDistributionParams)
		}
		return distuv.Exponential{Rate: rate, Src: src}, nil
	},
	"beta": func(p map[string]float64, src rand.Source) (Distribution, error) {
		alpha, err := need(p, "alpha")
		if err != nil {
			return nil, err
		}
		beta, err := need(p, "beta")
		if err != nil {
			return nil, err
		}
		if alpha <= 0 || beta <= 0 {
			return nil, fmt.Errorf("beta shape (%v, %v): %w", alpha, beta, ErrBadDistributionParams)
		}
		return distuv.Beta{Alpha: alpha, Beta: beta, Src: src}, nil
	},
}
