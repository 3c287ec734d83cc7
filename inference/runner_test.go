package inference_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cosmoglot/starling/config"
	"github.com/cosmoglot/starling/covariance"
	"github.com/cosmoglot/starling/filters"
	"github.com/cosmoglot/starling/inference"
	"github.com/cosmoglot/starling/prior"
	"github.com/cosmoglot/starling/reader"
	"github.com/cosmoglot/starling/theory"
	"github.com/cosmoglot/starling/theory/theorytest"
)

// fakeReader serves a fixed observation and its provenance parameters.
type fakeReader struct {
	obs    []float64
	params map[string]float64
}

func (f *fakeReader) Observation(map[string]any) ([]float64, error) {
	return append([]float64(nil), f.obs...), nil
}

func (f *fakeReader) ParametersFor(map[string]any) (map[string]float64, error) {
	return f.params, nil
}

// fakeCovSource serves an identity base covariance.
type fakeCovSource struct {
	dim      int
	samples  int
	smallVol bool
}

func (f *fakeCovSource) SampleCovariance() (covariance.Term, error) {
	m := mat.NewSymDense(f.dim, nil)
	for i := 0; i < f.dim; i++ {
		m.SetSym(i, i, 1)
	}
	return covariance.Term{Matrix: m, Samples: f.samples}, nil
}

func (f *fakeCovSource) EmulatorError() (*mat.SymDense, error)     { return nil, nil }
func (f *fakeCovSource) SimulationError() (covariance.Term, error) { return covariance.Term{}, nil }
func (f *fakeCovSource) RequiresVolumeScaling() bool               { return f.smallVol }

// newTestRegistries wires an affine two-bin model over three parameters,
// a fixed observation whose provenance carries all three true values,
// and an identity covariance.
func newTestRegistries(t *testing.T, smallVol bool) inference.Registries {
	t.Helper()

	regs := inference.Registries{
		Theory:        theory.NewRegistry(),
		Reader:        reader.NewRegistry(),
		Covariance:    covariance.NewSourceRegistry(),
		Distributions: prior.NewRegistry(),
	}

	require.NoError(t, regs.Theory.Register("emulator", func(statistics []string, args map[string]any) (theory.Summary, error) {
		return &theorytest.Affine{
			Names: []string{"omega_m", "sigma_8", "omega_b"},
			Bias:  []float64{1.0, 2.0},
			Weights: map[string][]float64{
				"omega_m": {1.0, 0.0},
				"sigma_8": {0.0, 1.0},
				"omega_b": {0.5, 0.5},
			},
			Sigma: []float64{0.3, 0.6},
		}, nil
	}))

	require.NoError(t, regs.Reader.Register("abacus", func(statistics []string, sel filters.Select, sli filters.Slice, args map[string]any) (reader.Source, error) {
		return &fakeReader{
			obs:    []float64{1.3245, 2.8245},
			params: map[string]float64{"omega_m": 0.3, "sigma_8": 0.8, "omega_b": 0.049},
		}, nil
	}))

	require.NoError(t, regs.Covariance.Register("abacus_small", func(dataset string, statistics []string, sel filters.Select, sli filters.Slice) (covariance.Source, error) {
		return &fakeCovSource{dim: 2, samples: 100, smallVol: smallVol}, nil
	}))

	return regs
}

func testConfig(t *testing.T, outputRoot string) *config.Config {
	t.Helper()
	doc := `
statistics: [tpcf]
select_filters:
  multipoles: [0, 2]
slice_filters:
  s: [0.7, 150.0]
data:
  observation:
    class: abacus
    get_obs_args: {cosmology: 0, hod_idx: 26}
  covariance:
    class: abacus_small
    dataset: bossprior
    volume_scaling: 64.0
theory_model:
  class: emulator
  args: {loss: mae}
fixed_parameters: [omega_b]
priors:
  omega_m: {distribution: uniform, min: 0.24, max: 0.40}
  sigma_8: {distribution: norm, mean: 0.81, dispersion: 0.03}
inference:
  output_dir: ` + outputRoot + `
  procedure: nested
  seed: 7
`
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return cfg
}

// TestResolve_ParamPartition verifies the core invariant: free and fixed
// names are disjoint and their union is exactly the model's inputs, with
// the free names in model input order.
func TestResolve_ParamPartition(t *testing.T) {
	runner, err := inference.Resolve(testConfig(t, t.TempDir()), newTestRegistries(t, false))
	require.NoError(t, err)

	free := runner.ParamNames()
	assert.Equal(t, []string{"omega_m", "sigma_8"}, free)

	fixed := runner.Priors().FixedValues()
	assert.Len(t, fixed, 1)
	assert.Equal(t, 0.049, fixed["omega_b"], "fixed value must come from the observation's provenance")

	seen := map[string]bool{}
	for _, name := range free {
		assert.NotContains(t, fixed, name, "free and fixed must be disjoint")
		seen[name] = true
	}
	for name := range fixed {
		seen[name] = true
	}
	assert.Len(t, seen, 3, "free ∪ fixed must cover every model input")
}

// TestResolve_VolumeScalingFailFast drops the volume_scaling key for a
// small-volume covariance source; resolution must fail before any
// covariance computation with the covariance sentinel.
func TestResolve_VolumeScalingFailFast(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Data.Covariance.VolumeScaling = nil

	_, err := inference.Resolve(cfg, newTestRegistries(t, true))
	assert.ErrorIs(t, err, covariance.ErrVolumeScalingRequired)
}

// TestResolve_SetupErrors exercises the fail-fast paths: missing prior,
// unknown fixed parameter, unknown registry entries, predicted
// uncertainty without model support.
func TestResolve_SetupErrors(t *testing.T) {
	t.Run("missing prior", func(t *testing.T) {
		cfg := testConfig(t, t.TempDir())
		delete(cfg.Priors.Specs, "sigma_8")
		_, err := inference.Resolve(cfg, newTestRegistries(t, false))
		assert.ErrorIs(t, err, inference.ErrPriorMissing)
	})
	t.Run("fixed parameter not a model input", func(t *testing.T) {
		cfg := testConfig(t, t.TempDir())
		cfg.FixedParameters = []string{"nuisance"}
		_, err := inference.Resolve(cfg, newTestRegistries(t, false))
		assert.ErrorIs(t, err, inference.ErrFixedParameterUnknown)
	})
	t.Run("unknown theory model", func(t *testing.T) {
		cfg := testConfig(t, t.TempDir())
		cfg.TheoryModel.Class = "other"
		_, err := inference.Resolve(cfg, newTestRegistries(t, false))
		assert.ErrorIs(t, err, theory.ErrUnknownModel)
	})
	t.Run("unknown prior kind", func(t *testing.T) {
		cfg := testConfig(t, t.TempDir())
		cfg.Priors.Specs["omega_m"] = config.PriorSpec{Distribution: "cauchy", Params: map[string]float64{"loc": 0, "scale": 1}}
		_, err := inference.Resolve(cfg, newTestRegistries(t, false))
		assert.ErrorIs(t, err, prior.ErrUnknownDistribution)
	})
}

// TestResolve_NoPartialOutput verifies a failed setup leaves nothing
// under the output root.
func TestResolve_NoPartialOutput(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	cfg.Data.Covariance.VolumeScaling = nil

	_, err := inference.Resolve(cfg, newTestRegistries(t, true))
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "no output directory before a run starts")
}

// TestOutputDir encodes dataset, observation args, statistics, loss,
// volume scaling, separation bounds and multipole selection.
func TestOutputDir(t *testing.T) {
	cfg := testConfig(t, "/chains")
	got := inference.OutputDir(cfg)
	assert.Equal(t, filepath.Join("/chains",
		"bossprior_cosmology0_hod_idx26_tpcf_mae_vol64_smin0.70_smax150.00_m02"), got)

	cfg.Inference.Suffix = "take2"
	assert.Equal(t, filepath.Join("/chains",
		"bossprior_cosmology0_hod_idx26_tpcf_mae_vol64_smin0.70_smax150.00_m02_take2"),
		inference.OutputDir(cfg))
}

// TestRunner_PredictionAndLikelihood checks the end-to-end scoring path
// against hand-computed values: free vector (0.3, 0.8) with fixed
// omega_b = 0.049 predicts exactly the observation, so loglike = 0.
func TestRunner_PredictionAndLikelihood(t *testing.T) {
	runner, err := inference.Resolve(testConfig(t, t.TempDir()), newTestRegistries(t, false))
	require.NoError(t, err)

	pred, err := runner.ModelPrediction([]float64{0.3, 0.8})
	require.NoError(t, err)
	// bias + omega_m*w + omega_b*0.5 = 1 + 0.3 + 0.0245, 2 + 0.8 + 0.0245.
	assert.InDelta(t, 1.3245, pred[0], 1e-12)
	assert.InDelta(t, 2.8245, pred[1], 1e-12)

	ll, err := runner.LogLikelihood([]float64{0.3, 0.8})
	require.NoError(t, err)
	// Identity covariance is volume-scaled by 64 and Hartlap-corrected,
	// but a zero residual scores zero regardless.
	assert.InDelta(t, 0.0, ll, 1e-12)
}

// TestRunner_BatchMatchesScalar verifies the batched likelihood equals
// row-by-row scalar evaluation through the runner.
func TestRunner_BatchMatchesScalar(t *testing.T) {
	runner, err := inference.Resolve(testConfig(t, t.TempDir()), newTestRegistries(t, false))
	require.NoError(t, err)

	batch := [][]float64{
		{0.3, 0.8},
		{0.25, 0.82},
		{0.4, 0.78},
	}
	got, err := runner.LogLikelihoodBatch(batch)
	require.NoError(t, err)
	for i, vec := range batch {
		want, err := runner.LogLikelihood(vec)
		require.NoError(t, err)
		assert.InDelta(t, want, got[i], 1e-9, "row %d", i)
	}
}

// TestRunner_BatchMatchesScalar_PredictedUncertainty runs the same
// batch-vs-scalar check with the per-sample covariance path: each row's
// predicted uncertainty is folded into its own effective matrix, and
// the scores must differ from the fixed-covariance ones.
func TestRunner_BatchMatchesScalar_PredictedUncertainty(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Data.Covariance.AddPredictedUncertainty = true
	runner, err := inference.Resolve(cfg, newTestRegistries(t, false))
	require.NoError(t, err)

	batch := [][]float64{
		{0.3, 0.8},
		{0.25, 0.82},
		{0.4, 0.78},
	}
	got, err := runner.LogLikelihoodBatch(batch)
	require.NoError(t, err)
	require.Len(t, got, len(batch))
	for i, vec := range batch {
		want, err := runner.LogLikelihood(vec)
		require.NoError(t, err)
		assert.InDelta(t, want, got[i], 1e-9, "row %d", i)
	}

	fixedRunner, err := inference.Resolve(testConfig(t, t.TempDir()), newTestRegistries(t, false))
	require.NoError(t, err)
	fixedLL, err := fixedRunner.LogLikelihood(batch[2])
	require.NoError(t, err)
	assert.Greater(t, got[2], fixedLL, "inflated covariance must soften a nonzero residual")
}

// TestRunner_SampleFromPrior draws a prior-predictive sample: the
// parameter mapping must cover every model input and the prediction must
// match evaluating the model on it.
func TestRunner_SampleFromPrior(t *testing.T) {
	runner, err := inference.Resolve(testConfig(t, t.TempDir()), newTestRegistries(t, false))
	require.NoError(t, err)

	params, prediction, err := runner.SampleFromPrior()
	require.NoError(t, err)
	assert.Len(t, params, 3)
	assert.Len(t, prediction, 2)
	assert.GreaterOrEqual(t, params["omega_m"], 0.24)
	assert.LessOrEqual(t, params["omega_m"], 0.40)
	assert.Equal(t, 0.049, params["omega_b"])
}

// TestRunner_Run drives a stub procedure: the output directory must
// exist by the time the procedure runs, the result must pass through,
// and a second invocation must be refused.
func TestRunner_Run(t *testing.T) {
	root := t.TempDir()
	runner, err := inference.Resolve(testConfig(t, root), newTestRegistries(t, false))
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "output dir must not exist while merely Ready")

	var sawDir bool
	proc := inference.ProcedureFunc(func(ctx context.Context, r *inference.Runner) (inference.Result, error) {
		if _, statErr := os.Stat(r.OutputDir()); statErr == nil {
			sawDir = true
		}
		return "chain", nil
	})

	result, err := runner.Run(context.Background(), proc)
	require.NoError(t, err)
	assert.Equal(t, "chain", result)
	assert.True(t, sawDir, "output dir must exist once Running")

	_, err = runner.Run(context.Background(), proc)
	assert.ErrorIs(t, err, inference.ErrAlreadyRun)
}

// TestProcedureRegistry covers the usual registry contract.
func TestProcedureRegistry(t *testing.T) {
	reg := inference.NewProcedureRegistry()
	proc := inference.ProcedureFunc(func(ctx context.Context, r *inference.Runner) (inference.Result, error) {
		return nil, nil
	})

	require.NoError(t, reg.Register("nested", proc))
	assert.ErrorIs(t, reg.Register("nested", proc), inference.ErrDuplicateProcedure)

	_, err := reg.Resolve("mcmc")
	assert.ErrorIs(t, err, inference.ErrUnknownProcedure)

	got, err := reg.Resolve("nested")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, []string{"nested"}, reg.Names())
}
