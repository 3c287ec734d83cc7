package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultVolumeScaling is the scaling applied when a source does not
// require an explicit value and the configuration supplies none.
const DefaultVolumeScaling = 1.0

// HartlapFactor returns the multiplicative bias-correction factor
// (n − nbins − 2)/(n − 1) for a sample covariance estimated from n
// samples over nbins data bins.
//
// The factor must be strictly positive for the correction to make
// sense; n ≤ nbins + 2 returns ErrBadSampleCount.
//
// Complexity: O(1).
func HartlapFactor(nSamples, nBins int) (float64, error) {
	if nSamples <= nBins+2 {
		return 0, fmt.Errorf("n=%d, bins=%d: %w", nSamples, nBins, ErrBadSampleCount)
	}
	return float64(nSamples-nBins-2) / float64(nSamples-1), nil
}

// Option configures a Builder.
type Option func(*options)

// options stores the effective configuration after applying Option
// setters. Fields are unexported; public entry points accept ...Option.
type options struct {
	applyHartlap       bool
	addEmulatorError   bool
	addSimulationError bool
	volumeScaling      float64
	volumeScalingSet   bool
}

func defaultOptions() options {
	return options{
		applyHartlap:  true,
		volumeScaling: DefaultVolumeScaling,
	}
}

// WithHartlap toggles the Hartlap correction on the base and
// simulation-error terms. Enabled by default.
func WithHartlap(apply bool) Option {
	return func(o *options) { o.applyHartlap = apply }
}

// WithEmulatorError includes the emulator-error term in the assembled
// matrix.
func WithEmulatorError() Option {
	return func(o *options) { o.addEmulatorError = true }
}

// WithSimulationError includes the simulation-error term in the
// assembled matrix.
func WithSimulationError() Option {
	return func(o *options) { o.addSimulationError = true }
}

// WithVolumeScaling sets the explicit volume scaling applied to the
// base term. Mandatory when the source reports RequiresVolumeScaling.
func WithVolumeScaling(v float64) Option {
	return func(o *options) {
		o.volumeScaling = v
		o.volumeScalingSet = true
	}
}

// Builder fetches raw covariance terms from a Source and assembles the
// combined matrix. Construction validates the configuration; the
// numeric work happens in Build.
type Builder struct {
	source Source
	opts   options
}

// NewBuilder validates the configuration against the source and returns
// a ready Builder.
//
// Validation (in order):
//  1. source must be non-nil (ErrMissingSource).
//  2. a source requiring volume scaling must have an explicit value
//     (ErrVolumeScalingRequired) — checked here, before any covariance
//     computation.
//  3. the scaling value, explicit or default, must be finite and
//     positive (ErrBadVolumeScaling).
func NewBuilder(source Source, opts ...Option) (*Builder, error) {
	if source == nil {
		return nil, ErrMissingSource
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if source.RequiresVolumeScaling() && !cfg.volumeScalingSet {
		return nil, ErrVolumeScalingRequired
	}
	if math.IsNaN(cfg.volumeScaling) || math.IsInf(cfg.volumeScaling, 0) || cfg.volumeScaling <= 0 {
		return nil, fmt.Errorf("%v: %w", cfg.volumeScaling, ErrBadVolumeScaling)
	}
	return &Builder{source: source, opts: cfg}, nil
}

// Build fetches the configured terms from the source and assembles the
// combined covariance matrix. The result is verified positive definite
// before being returned.
//
// Complexity: O(n²) assembly + O(n³) Cholesky check, n = matrix dim.
func (b *Builder) Build() (*mat.SymDense, error) {
	base, err := b.source.SampleCovariance()
	if err != nil {
		return nil, fmt.Errorf("covariance: fetch base term: %w", err)
	}

	var emulator *mat.SymDense
	if b.opts.addEmulatorError {
		if emulator, err = b.source.EmulatorError(); err != nil {
			return nil, fmt.Errorf("covariance: fetch emulator term: %w", err)
		}
	}

	var simulation *Term
	if b.opts.addSimulationError {
		t, err := b.source.SimulationError()
		if err != nil {
			return nil, fmt.Errorf("covariance: fetch simulation term: %w", err)
		}
		simulation = &t
	}

	return Assemble(base, emulator, simulation, b.opts.applyHartlap, b.opts.volumeScaling)
}

// Assemble combines the covariance terms into the final matrix:
//
//	C = hartlap(base)/volumeScaling (+ emulator) (+ hartlap(simulation))
//
// The Hartlap factor multiplies the base and simulation terms when
// applyHartlap is true; the emulator term is never corrected. Term
// addition is commutative, so callers and tests must not rely on order.
// The assembled matrix is Cholesky-checked; failure returns
// ErrNotPositiveDefinite without regularization.
func Assemble(base Term, emulator *mat.SymDense, simulation *Term, applyHartlap bool, volumeScaling float64) (*mat.SymDense, error) {
	if err := validateTerm(base.Matrix); err != nil {
		return nil, fmt.Errorf("covariance: base term: %w", err)
	}
	if math.IsNaN(volumeScaling) || math.IsInf(volumeScaling, 0) || volumeScaling <= 0 {
		return nil, fmt.Errorf("%v: %w", volumeScaling, ErrBadVolumeScaling)
	}
	n := base.Matrix.SymmetricDim()

	// Base term: Hartlap first, then volume rescaling. Covariance scales
	// inversely with the effective volume, so the base is divided by the
	// scaling factor.
	scale := 1.0 / volumeScaling
	if applyHartlap {
		factor, err := HartlapFactor(base.Samples, n)
		if err != nil {
			return nil, fmt.Errorf("covariance: base term: %w", err)
		}
		scale *= factor
	}
	out := mat.NewSymDense(n, nil)
	scaleSym(out, scale, base.Matrix)

	if emulator != nil {
		if err := validateTerm(emulator); err != nil {
			return nil, fmt.Errorf("covariance: emulator term: %w", err)
		}
		if err := validateSameDim(base.Matrix, emulator); err != nil {
			return nil, fmt.Errorf("covariance: emulator term: %w", err)
		}
		addSymScaled(out, 1.0, emulator)
	}

	if simulation != nil {
		if err := validateTerm(simulation.Matrix); err != nil {
			return nil, fmt.Errorf("covariance: simulation term: %w", err)
		}
		if err := validateSameDim(base.Matrix, simulation.Matrix); err != nil {
			return nil, fmt.Errorf("covariance: simulation term: %w", err)
		}
		simScale := 1.0
		if applyHartlap {
			factor, err := HartlapFactor(simulation.Samples, n)
			if err != nil {
				return nil, fmt.Errorf("covariance: simulation term: %w", err)
			}
			simScale = factor
		}
		addSymScaled(out, simScale, simulation.Matrix)
	}

	// Fail fast on a non-PD result; never regularize silently.
	var chol mat.Cholesky
	if ok := chol.Factorize(out); !ok {
		return nil, ErrNotPositiveDefinite
	}
	return out, nil
}

// Invert returns the inverse of a positive-definite covariance matrix
// via its Cholesky factorization. The inverse is computed once at setup
// when the likelihood runs in fixed-covariance mode.
//
// Complexity: O(n³).
func Invert(c *mat.SymDense) (*mat.SymDense, error) {
	if err := validateTerm(c); err != nil {
		return nil, err
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(c); !ok {
		return nil, ErrNotPositiveDefinite
	}
	n := c.SymmetricDim()
	inv := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrNotPositiveDefinite)
	}
	return inv, nil
}

// scaleSym writes dst = s*m for symmetric matrices of equal dimension.
func scaleSym(dst *mat.SymDense, s float64, m *mat.SymDense) {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, s*m.At(i, j))
		}
	}
}

// addSymScaled accumulates dst += s*m for symmetric matrices of equal
// dimension.
func addSymScaled(dst *mat.SymDense, s float64, m *mat.SymDense) {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, dst.At(i, j)+s*m.At(i, j))
		}
	}
}
