package likelihood_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cosmoglot/starling/covariance"
	"github.com/cosmoglot/starling/likelihood"
)

func identity(n int) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
	}
	return m
}

// TestLogLikelihood_PerfectPrediction: observation [1,2,3], identity
// covariance, prediction equal to the observation → exactly zero.
func TestLogLikelihood_PerfectPrediction(t *testing.T) {
	g, err := likelihood.NewGaussian([]float64{1, 2, 3}, identity(3))
	require.NoError(t, err)

	ll, err := g.LogLikelihood([]float64{1, 2, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ll, "zero residual must score exactly 0")
}

// TestLogLikelihood_UnitResidual: same setup, prediction [2,2,3] →
// -0.5 * 1² = -0.5.
func TestLogLikelihood_UnitResidual(t *testing.T) {
	g, err := likelihood.NewGaussian([]float64{1, 2, 3}, identity(3))
	require.NoError(t, err)

	ll, err := g.LogLikelihood([]float64{2, 2, 3}, nil)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, ll, 1e-15)
}

// TestLogLikelihood_NonDiagonalCovariance pins the quadratic form on a
// correlated 2x2 covariance: C = [[2,1],[1,2]], d = [1,1] →
// C⁻¹ = 1/3·[[2,-1],[-1,2]], dᵀC⁻¹d = 2/3, loglike = -1/3.
func TestLogLikelihood_NonDiagonalCovariance(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{2, 1, 1, 2})
	g, err := likelihood.NewGaussian([]float64{0, 0}, cov)
	require.NoError(t, err)

	ll, err := g.LogLikelihood([]float64{1, 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, -1.0/3.0, ll, 1e-12)
}

// TestLogLikelihoodBatch_MatchesScalar verifies the required property
// that batched evaluation equals row-by-row scalar evaluation, in both
// covariance modes.
func TestLogLikelihoodBatch_MatchesScalar(t *testing.T) {
	obs := []float64{1, 2, 3}
	cov := mat.NewSymDense(3, []float64{
		2.0, 0.3, 0.1,
		0.3, 1.5, 0.2,
		0.1, 0.2, 1.0,
	})
	batch := [][]float64{
		{1.0, 2.0, 3.0},
		{1.5, 1.8, 3.3},
		{0.2, 2.9, 2.4},
		{9.0, -1.0, 0.0},
	}

	t.Run("fixed covariance", func(t *testing.T) {
		g, err := likelihood.NewGaussian(obs, cov)
		require.NoError(t, err)

		got, err := g.LogLikelihoodBatch(batch, nil)
		require.NoError(t, err)
		require.Len(t, got, len(batch))
		for i, row := range batch {
			want, err := g.LogLikelihood(row, nil)
			require.NoError(t, err)
			assert.InDelta(t, want, got[i], 1e-9, "row %d", i)
		}
	})

	t.Run("predicted uncertainty", func(t *testing.T) {
		g, err := likelihood.NewGaussian(obs, cov, likelihood.WithPredictedUncertainty())
		require.NoError(t, err)

		sigma := []float64{0.4, 0.1, 0.7}
		got, err := g.LogLikelihoodBatch(batch, sigma)
		require.NoError(t, err)
		for i, row := range batch {
			want, err := g.LogLikelihood(row, sigma)
			require.NoError(t, err)
			assert.InDelta(t, want, got[i], 1e-9, "row %d", i)
		}
	})
}

// TestPredictedUncertainty_ZeroMatchesFixedMode verifies that deferred
// mode with a zero uncertainty vector reproduces the fixed-covariance
// result for the same prediction, observation and covariance.
func TestPredictedUncertainty_ZeroMatchesFixedMode(t *testing.T) {
	obs := []float64{1, 2, 3}
	cov := mat.NewSymDense(3, []float64{
		2.0, 0.3, 0.1,
		0.3, 1.5, 0.2,
		0.1, 0.2, 1.0,
	})
	prediction := []float64{1.4, 2.2, 2.7}

	fixed, err := likelihood.NewGaussian(obs, cov)
	require.NoError(t, err)
	wantLL, err := fixed.LogLikelihood(prediction, nil)
	require.NoError(t, err)

	deferred, err := likelihood.NewGaussian(obs, cov, likelihood.WithPredictedUncertainty())
	require.NoError(t, err)
	gotLL, err := deferred.LogLikelihood(prediction, []float64{0, 0, 0})
	require.NoError(t, err)

	assert.InDelta(t, wantLL, gotLL, 1e-12)
}

// TestPredictedUncertainty_InflatesCovariance verifies the effective
// covariance is C + diag(σ²): with identity covariance and σ = 1 on
// every bin, a unit residual scores -0.5/2 instead of -0.5.
func TestPredictedUncertainty_InflatesCovariance(t *testing.T) {
	g, err := likelihood.NewGaussian([]float64{1, 2, 3}, identity(3), likelihood.WithPredictedUncertainty())
	require.NoError(t, err)

	ll, err := g.LogLikelihood([]float64{2, 2, 3}, []float64{1, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, -0.25, ll, 1e-12)
}

// TestErrors exercises the failure contract: shape mismatches are never
// broadcast, deferred mode demands an uncertainty vector, construction
// fails on a singular covariance.
func TestErrors(t *testing.T) {
	t.Run("empty observation", func(t *testing.T) {
		_, err := likelihood.NewGaussian(nil, identity(1))
		assert.ErrorIs(t, err, likelihood.ErrEmptyObservation)
	})
	t.Run("covariance dim mismatch", func(t *testing.T) {
		_, err := likelihood.NewGaussian([]float64{1, 2}, identity(3))
		assert.ErrorIs(t, err, likelihood.ErrDimensionMismatch)
	})
	t.Run("prediction length mismatch", func(t *testing.T) {
		g, err := likelihood.NewGaussian([]float64{1, 2}, identity(2))
		require.NoError(t, err)
		_, err = g.LogLikelihood([]float64{1, 2, 3}, nil)
		assert.ErrorIs(t, err, likelihood.ErrDimensionMismatch)
	})
	t.Run("missing uncertainty in deferred mode", func(t *testing.T) {
		g, err := likelihood.NewGaussian([]float64{1, 2}, identity(2), likelihood.WithPredictedUncertainty())
		require.NoError(t, err)
		_, err = g.LogLikelihood([]float64{1, 2}, nil)
		assert.ErrorIs(t, err, likelihood.ErrMissingUncertainty)
	})
	t.Run("singular covariance at construction", func(t *testing.T) {
		singular := mat.NewSymDense(2, []float64{1, 1, 1, 1})
		_, err := likelihood.NewGaussian([]float64{1, 2}, singular)
		assert.ErrorIs(t, err, covariance.ErrNotPositiveDefinite)
	})
}

// TestMeanNegLogLike verifies the batch validation loss: unit residuals
// on identity covariance average to 0.5 per sample.
func TestMeanNegLogLike(t *testing.T) {
	g, err := likelihood.NewGaussian([]float64{0, 0}, identity(2))
	require.NoError(t, err)

	loss, err := g.MeanNegLogLike([][]float64{
		{1, 0}, // dᵀd = 1 → -ll = 0.5
		{0, 1}, // dᵀd = 1 → -ll = 0.5
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, loss, 1e-12)
}
