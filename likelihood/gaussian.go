package likelihood

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cosmoglot/starling/covariance"
)

// Sentinel errors returned by likelihood evaluation.
var (
	// ErrDimensionMismatch indicates observation, covariance, prediction
	// or uncertainty shapes disagree. Never silently broadcast.
	ErrDimensionMismatch = errors.New("likelihood: dimension mismatch")

	// ErrEmptyObservation indicates a zero-length observation vector.
	ErrEmptyObservation = errors.New("likelihood: empty observation")

	// ErrMissingUncertainty indicates predicted-uncertainty mode was
	// enabled but no uncertainty vector was supplied at evaluation.
	ErrMissingUncertainty = errors.New("likelihood: predicted uncertainty required but not supplied")
)

// Option configures a Gaussian.
type Option func(*options)

type options struct {
	predictedUncertainty bool
}

// WithPredictedUncertainty enables the per-evaluation covariance mode:
// inversion is deferred to each call so the model's own predicted
// variance can be folded into the matrix.
func WithPredictedUncertainty() Option {
	return func(o *options) { o.predictedUncertainty = true }
}

// Gaussian scores predictions against a fixed observation under a
// Gaussian likelihood. All fields are read-only after construction; a
// Gaussian may be shared by concurrent sampler workers.
type Gaussian struct {
	obs      []float64
	cov      *mat.SymDense // retained for the deferred mode
	inv      *mat.SymDense // precomputed inverse; nil in deferred mode
	deferred bool
	n        int
}

// NewGaussian builds a likelihood for the given observation and
// covariance matrix. In fixed mode (the default) the covariance is
// inverted here, once; inversion failure surfaces immediately as
// covariance.ErrNotPositiveDefinite.
func NewGaussian(observation []float64, cov *mat.SymDense, opts ...Option) (*Gaussian, error) {
	if len(observation) == 0 {
		return nil, ErrEmptyObservation
	}
	if cov == nil || cov.SymmetricDim() != len(observation) {
		return nil, fmt.Errorf("observation length %d vs covariance dim %d: %w",
			len(observation), symDim(cov), ErrDimensionMismatch)
	}

	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Gaussian{
		obs:      append([]float64(nil), observation...),
		cov:      cloneSym(cov),
		deferred: cfg.predictedUncertainty,
		n:        len(observation),
	}
	if !g.deferred {
		inv, err := covariance.Invert(g.cov)
		if err != nil {
			return nil, err
		}
		g.inv = inv
	}
	return g, nil
}

// Dim returns the observation length.
func (g *Gaussian) Dim() int { return g.n }

// LogLikelihood computes −0.5·dᵀ·C⁻¹·d for one prediction. In fixed
// mode predictedUncertainty is ignored (the covariance was inverted at
// construction); in deferred mode it is mandatory and one σ² entry per
// bin is added to the covariance diagonal before inversion.
//
// Complexity: O(n²) in fixed mode, O(n³) in deferred mode.
func (g *Gaussian) LogLikelihood(prediction, predictedUncertainty []float64) (float64, error) {
	if len(prediction) != g.n {
		return 0, fmt.Errorf("prediction length %d vs %d: %w", len(prediction), g.n, ErrDimensionMismatch)
	}
	inv, err := g.inverseFor(predictedUncertainty)
	if err != nil {
		return 0, err
	}
	return g.quadratic(prediction, inv), nil
}

// LogLikelihoodBatch computes one log-likelihood per prediction row.
// Rows share a single predictedUncertainty vector (the batch was
// produced by one parameter draw per row, but the uncertainty term is
// resolved once per batch, matching the scalar path called row by row
// with the same vector).
//
// This is a throughput path only: results are identical to calling
// LogLikelihood once per row.
func (g *Gaussian) LogLikelihoodBatch(predictions [][]float64, predictedUncertainty []float64) ([]float64, error) {
	inv, err := g.inverseFor(predictedUncertainty)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(predictions))
	for i, row := range predictions {
		if len(row) != g.n {
			return nil, fmt.Errorf("row %d length %d vs %d: %w", i, len(row), g.n, ErrDimensionMismatch)
		}
		out[i] = g.quadratic(row, inv)
	}
	return out, nil
}

// MeanNegLogLike returns 0.5·mean(dᵀ·C⁻¹·d) over the batch, the
// training/validation loss used when checking an emulator against a
// held-out set. Fixed-covariance mode only.
func (g *Gaussian) MeanNegLogLike(predictions [][]float64) (float64, error) {
	if g.deferred {
		return 0, fmt.Errorf("deferred covariance mode: %w", ErrMissingUncertainty)
	}
	if len(predictions) == 0 {
		return 0, fmt.Errorf("empty batch: %w", ErrDimensionMismatch)
	}
	lls, err := g.LogLikelihoodBatch(predictions, nil)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, ll := range lls {
		sum -= ll
	}
	return sum / float64(len(lls)), nil
}

// inverseFor resolves the inverse covariance for one evaluation: the
// precomputed matrix in fixed mode, or a fresh inversion of
// C + diag(σ²) in deferred mode.
func (g *Gaussian) inverseFor(predictedUncertainty []float64) (*mat.SymDense, error) {
	if !g.deferred {
		return g.inv, nil
	}
	if predictedUncertainty == nil {
		return nil, ErrMissingUncertainty
	}
	if len(predictedUncertainty) != g.n {
		return nil, fmt.Errorf("uncertainty length %d vs %d: %w", len(predictedUncertainty), g.n, ErrDimensionMismatch)
	}
	eff := cloneSym(g.cov)
	for i, u := range predictedUncertainty {
		eff.SetSym(i, i, eff.At(i, i)+u*u)
	}
	return covariance.Invert(eff)
}

// quadratic computes −0.5·dᵀ·inv·d with d = prediction − observation.
func (g *Gaussian) quadratic(prediction []float64, inv *mat.SymDense) float64 {
	d := make([]float64, g.n)
	for i := range d {
		d[i] = prediction[i] - g.obs[i]
	}
	dv := mat.NewVecDense(g.n, d)
	return -0.5 * mat.Inner(dv, inv, dv)
}

func cloneSym(m *mat.SymDense) *mat.SymDense {
	n := m.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	out.CopySym(m)
	return out
}

func symDim(m *mat.SymDense) int {
	if m == nil {
		return 0
	}
	return m.SymmetricDim()
}
