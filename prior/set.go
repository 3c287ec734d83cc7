package prior

import (
	"errors"
	"fmt"
)

// Sentinel errors for Set construction and use.
var (
	// ErrParamOverlap indicates a parameter appears as both free and
	// fixed.
	ErrParamOverlap = errors.New("prior: parameter is both free and fixed")

	// ErrParamMissing indicates a free parameter has no distribution, or
	// a vector has the wrong length.
	ErrParamMissing = errors.New("prior: parameter not covered")
)

// Set holds one distribution per free parameter, in theory-model input
// order, together with the fixed-parameter values that complete every
// sampled mapping.
type Set struct {
	free  []string
	dists map[string]Distribution
	fixed map[string]float64
}

// NewSet builds a Set.
//
// Validation (in order):
//  1. free and fixed names must be disjoint (ErrParamOverlap).
//  2. every free name must have a distribution (ErrParamMissing).
func NewSet(free []string, dists map[string]Distribution, fixed map[string]float64) (*Set, error) {
	for _, name := range free {
		if _, clash := fixed[name]; clash {
			return nil, fmt.Errorf("%q: %w", name, ErrParamOverlap)
		}
		if _, ok := dists[name]; !ok {
			return nil, fmt.Errorf("no distribution for %q: %w", name, ErrParamMissing)
		}
	}
	s := &Set{
		free:  append([]string(nil), free...),
		dists: make(map[string]Distribution, len(free)),
		fixed: make(map[string]float64, len(fixed)),
	}
	for _, name := range free {
		s.dists[name] = dists[name]
	}
	for name, v := range fixed {
		s.fixed[name] = v
	}
	return s, nil
}

// FreeNames returns the free parameter names in order.
func (s *Set) FreeNames() []string { return append([]string(nil), s.free...) }

// FixedValues returns a copy of the fixed parameter mapping.
func (s *Set) FixedValues() map[string]float64 {
	out := make(map[string]float64, len(s.fixed))
	for k, v := range s.fixed {
		out[k] = v
	}
	return out
}

// Dim returns the number of free parameters.
func (s *Set) Dim() int { return len(s.free) }

// Distribution returns the prior for one free parameter.
func (s *Set) Distribution(name string) (Distribution, bool) {
	d, ok := s.dists[name]
	return d, ok
}

// SampleVector draws one value per free parameter, in order.
func (s *Set) SampleVector() []float64 {
	out := make([]float64, len(s.free))
	for i, name := range s.free {
		out[i] = s.dists[name].Rand()
	}
	return out
}

// Sample draws one value per free parameter and fills in the fixed
// values, returning a complete parameter mapping covering every input
// the theory model requires.
func (s *Set) Sample() map[string]float64 {
	return s.complete(s.SampleVector())
}

// Complete assembles a full parameter mapping from a free-parameter
// vector (in FreeNames order) plus the fixed values. Vector length
// mismatches return ErrParamMissing.
func (s *Set) Complete(vector []float64) (map[string]float64, error) {
	if len(vector) != len(s.free) {
		return nil, fmt.Errorf("vector length %d vs %d free parameters: %w", len(vector), len(s.free), ErrParamMissing)
	}
	return s.complete(vector), nil
}

// complete assumes the vector length was already validated.
func (s *Set) complete(vector []float64) map[string]float64 {
	out := make(map[string]float64, len(s.free)+len(s.fixed))
	for i, name := range s.free {
		out[name] = vector[i]
	}
	for name, v := range s.fixed {
		out[name] = v
	}
	return out
}

// Transform maps a unit-hypercube point to a free-parameter vector by
// sending each coordinate through its prior's inverse CDF. Nested
// samplers walk the cube and call this per point. The cube length must
// equal Dim.
func (s *Set) Transform(cube []float64) ([]float64, error) {
	if len(cube) != len(s.free) {
		return nil, fmt.Errorf("cube length %d vs %d free parameters: %w", len(cube), len(s.free), ErrParamMissing)
	}
	out := make([]float64, len(cube))
	for i, name := range s.free {
		out[i] = s.dists[name].Quantile(cube[i])
	}
	return out, nil
}

// LogProb sums the log prior density over the free-parameter vector (in
// FreeNames order). Vector length mismatches return ErrParamMissing.
func (s *Set) LogProb(vector []float64) (float64, error) {
	if len(vector) != len(s.free) {
		return 0, fmt.Errorf("vector length %d vs %d free parameters: %w", len(vector), len(s.free), ErrParamMissing)
	}
	var ll float64
	for i, name := range s.free {
		ll += s.dists[name].LogProb(vector[i])
	}
	return ll, nil
}
