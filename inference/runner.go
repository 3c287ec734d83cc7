package inference

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/cosmoglot/starling/config"
	"github.com/cosmoglot/starling/covariance"
	"github.com/cosmoglot/starling/filters"
	"github.com/cosmoglot/starling/likelihood"
	"github.com/cosmoglot/starling/logging"
	"github.com/cosmoglot/starling/prior"
	"github.com/cosmoglot/starling/reader"
	"github.com/cosmoglot/starling/theory"
)

// Runner states.
const (
	stateReady int32 = iota
	stateRunning
	stateDone
)

// Registries injects the named-component lookups Resolve draws from.
// All four must be populated; nothing is resolved by reflection.
type Registries struct {
	Theory        *theory.Registry
	Reader        *reader.Registry
	Covariance    *covariance.SourceRegistry
	Distributions *prior.Registry
}

// Runner is a fully resolved inference setup: theory model, observation,
// covariance/likelihood, priors and output bookkeeping. All fields are
// read-only after Resolve; only the run-state flag mutates.
type Runner struct {
	model       theory.Summary
	uncertainty theory.UncertaintyPredictor // non-nil only in predicted-uncertainty mode
	observation []float64
	gauss       *likelihood.Gaussian
	priors      *prior.Set
	sel         filters.Select
	sli         filters.Slice
	outputDir   string
	paramNames  []string
	state       atomic.Int32
}

// Resolve constructs a Runner from configuration. It is a pure function
// of the configuration's contents, the injected registries and the
// external data sources they name. Any failure is a setup error: it
// aborts before sampling and before any output directory exists.
func Resolve(cfg *config.Config, regs Registries) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sel, err := cfg.Select()
	if err != nil {
		return nil, err
	}
	sli, err := cfg.Slice()
	if err != nil {
		return nil, err
	}

	// Observation and its provenance parameters.
	obsSource, err := regs.Reader.Resolve(cfg.Data.Observation.Class, cfg.Statistics, sel, sli, cfg.Data.Observation.Args)
	if err != nil {
		return nil, err
	}
	observation, err := obsSource.Observation(cfg.Data.Observation.GetObsArgs)
	if err != nil {
		return nil, fmt.Errorf("inference: load observation: %w", err)
	}
	provenance, err := obsSource.ParametersFor(cfg.Data.Observation.GetObsArgs)
	if err != nil {
		return nil, fmt.Errorf("inference: load observation parameters: %w", err)
	}

	// Theory model.
	model, err := regs.Theory.Resolve(cfg.TheoryModel.Class, cfg.Statistics, cfg.TheoryModel.Args)
	if err != nil {
		return nil, err
	}
	inputNames := model.InputNames()

	// Fixed parameters take the observation's true underlying values, so
	// a validation run against a known observation holds its truth fixed.
	fixed := make(map[string]float64, len(cfg.FixedParameters))
	inputSet := make(map[string]struct{}, len(inputNames))
	for _, name := range inputNames {
		inputSet[name] = struct{}{}
	}
	for _, name := range cfg.FixedParameters {
		if _, ok := inputSet[name]; !ok {
			return nil, fmt.Errorf("%q is not a model input: %w", name, ErrFixedParameterUnknown)
		}
		v, ok := provenance[name]
		if !ok {
			return nil, fmt.Errorf("%q has no provenance value: %w", name, ErrFixedParameterUnknown)
		}
		fixed[name] = v
	}

	// Free parameters: model inputs minus fixed names, in the model's
	// declared input order (batched evaluation relies on this order).
	free := make([]string, 0, len(inputNames)-len(fixed))
	for _, name := range inputNames {
		if _, isFixed := fixed[name]; !isFixed {
			free = append(free, name)
		}
	}

	// Priors for every free parameter, all drawing from one seeded
	// source so a run is reproducible.
	src := prior.SourceFromSeed(cfg.Inference.Seed)
	dists := make(map[string]prior.Distribution, len(free))
	for _, name := range free {
		spec, ok := cfg.Priors.Specs[name]
		if !ok {
			return nil, fmt.Errorf("%q: %w", name, ErrPriorMissing)
		}
		dist, err := regs.Distributions.Resolve(spec.Distribution, spec.Params, src)
		if err != nil {
			return nil, err
		}
		dists[name] = dist
	}
	priors, err := prior.NewSet(free, dists, fixed)
	if err != nil {
		return nil, err
	}

	// Combined covariance.
	covCfg := cfg.Data.Covariance
	covSource, err := regs.Covariance.Resolve(covCfg.Class, covCfg.Dataset, cfg.Statistics, sel, sli)
	if err != nil {
		return nil, err
	}
	buildOpts := []covariance.Option{covariance.WithHartlap(covCfg.Hartlap())}
	if covCfg.AddEmulatorErrorTestSet {
		buildOpts = append(buildOpts, covariance.WithEmulatorError())
	}
	if covCfg.AddSimulationError {
		buildOpts = append(buildOpts, covariance.WithSimulationError())
	}
	if covCfg.VolumeScaling != nil {
		buildOpts = append(buildOpts, covariance.WithVolumeScaling(*covCfg.VolumeScaling))
	}
	builder, err := covariance.NewBuilder(covSource, buildOpts...)
	if err != nil {
		return nil, err
	}
	cov, err := builder.Build()
	if err != nil {
		return nil, err
	}
	if cov.SymmetricDim() != len(observation) {
		return nil, fmt.Errorf("observation length %d vs covariance dim %d: %w",
			len(observation), cov.SymmetricDim(), ErrDimensionMismatch)
	}

	// Likelihood; predicted-uncertainty mode requires a model that
	// reports one.
	var likeOpts []likelihood.Option
	var uncertainty theory.UncertaintyPredictor
	if covCfg.AddPredictedUncertainty {
		up, ok := model.(theory.UncertaintyPredictor)
		if !ok {
			return nil, fmt.Errorf("%q: %w", cfg.TheoryModel.Class, ErrUncertaintyUnsupported)
		}
		uncertainty = up
		likeOpts = append(likeOpts, likelihood.WithPredictedUncertainty())
	}
	gauss, err := likelihood.NewGaussian(observation, cov, likeOpts...)
	if err != nil {
		return nil, err
	}

	return &Runner{
		model:       model,
		uncertainty: uncertainty,
		observation: append([]float64(nil), observation...),
		gauss:       gauss,
		priors:      priors,
		sel:         sel.Clone(),
		sli:         sli.Clone(),
		outputDir:   OutputDir(cfg),
		paramNames:  free,
	}, nil
}

// ParamNames returns the free parameter names, in theory-model input
// order. Available before invocation for logging and progress reports.
func (r *Runner) ParamNames() []string { return append([]string(nil), r.paramNames...) }

// OutputDir returns the run-specific output directory path. It is not
// created until Run starts.
func (r *Runner) OutputDir() string { return r.outputDir }

// Observation returns a copy of the observed summary statistic.
func (r *Runner) Observation() []float64 { return append([]float64(nil), r.observation...) }

// Priors returns the prior set.
func (r *Runner) Priors() *prior.Set { return r.priors }

// Likelihood returns the Gaussian likelihood.
func (r *Runner) Likelihood() *likelihood.Gaussian { return r.gauss }

// SampleParametersFromPrior draws one complete parameter mapping: one
// prior draw per free parameter, fixed values filled in.
func (r *Runner) SampleParametersFromPrior() map[string]float64 { return r.priors.Sample() }

// SampleFromPrior draws parameters from the prior and evaluates the
// theory model on them: one prior-predictive sample.
func (r *Runner) SampleFromPrior() (map[string]float64, []float64, error) {
	params := r.priors.Sample()
	prediction, err := r.model.Predict(params, r.sel, r.sli)
	if err != nil {
		return nil, nil, err
	}
	return params, prediction, nil
}

// ModelPrediction evaluates the theory model for a free-parameter
// vector (ParamNames order); fixed parameters are filled in.
func (r *Runner) ModelPrediction(vector []float64) ([]float64, error) {
	if len(vector) != len(r.paramNames) {
		return nil, fmt.Errorf("vector length %d vs %d free parameters: %w",
			len(vector), len(r.paramNames), ErrDimensionMismatch)
	}
	params, err := r.priors.Complete(vector)
	if err != nil {
		return nil, err
	}
	return r.model.Predict(params, r.sel, r.sli)
}

// ModelPredictionBatch evaluates the theory model for a batch of
// free-parameter vectors. Fixed parameters are broadcast across the
// batch; slice bounds are passed explicitly with the filters rather
// than read from instance state.
func (r *Runner) ModelPredictionBatch(vectors [][]float64) ([][]float64, error) {
	n := len(vectors)
	cols := make(map[string][]float64, len(r.paramNames))
	for j, name := range r.paramNames {
		col := make([]float64, n)
		for i, vec := range vectors {
			if len(vec) != len(r.paramNames) {
				return nil, fmt.Errorf("row %d length %d vs %d free parameters: %w",
					i, len(vec), len(r.paramNames), ErrDimensionMismatch)
			}
			col[i] = vec[j]
		}
		cols[name] = col
	}
	for name, v := range r.priors.FixedValues() {
		col := make([]float64, n)
		for i := range col {
			col[i] = v
		}
		cols[name] = col
	}
	return r.model.PredictBatch(cols, r.sel, r.sli)
}

// LogLikelihood scores one free-parameter vector: predict, then the
// Gaussian quadratic form. In predicted-uncertainty mode the model's
// per-bin uncertainty for this sample is folded into the covariance.
func (r *Runner) LogLikelihood(vector []float64) (float64, error) {
	prediction, err := r.ModelPrediction(vector)
	if err != nil {
		return 0, err
	}
	var sigma []float64
	if r.uncertainty != nil {
		params, err := r.priors.Complete(vector)
		if err != nil {
			return 0, err
		}
		if sigma, err = r.uncertainty.PredictUncertainty(params, r.sel, r.sli); err != nil {
			return 0, err
		}
	}
	return r.gauss.LogLikelihood(prediction, sigma)
}

// LogLikelihoodBatch scores a batch of free-parameter vectors. In fixed
// covariance mode the whole batch shares the precomputed inverse; in
// predicted-uncertainty mode each row is scored with its own effective
// covariance, identically to calling LogLikelihood row by row.
func (r *Runner) LogLikelihoodBatch(vectors [][]float64) ([]float64, error) {
	if r.uncertainty != nil {
		out := make([]float64, len(vectors))
		for i, vec := range vectors {
			ll, err := r.LogLikelihood(vec)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			out[i] = ll
		}
		return out, nil
	}
	predictions, err := r.ModelPredictionBatch(vectors)
	if err != nil {
		return nil, err
	}
	return r.gauss.LogLikelihoodBatch(predictions, nil)
}

// Run creates the output directory and hands the sampling loop to proc.
// A Runner runs at most once; concurrent or repeated calls return
// ErrAlreadyRun. Errors from the procedure propagate unchanged; model
// evaluation is deterministic, so the core never retries.
func (r *Runner) Run(ctx context.Context, proc Procedure) (Result, error) {
	if !r.state.CompareAndSwap(stateReady, stateRunning) {
		return nil, ErrAlreadyRun
	}
	defer r.state.Store(stateDone)

	// Output appears only once the run actually starts.
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("inference: create output dir: %w", err)
	}

	log := logging.WithComponent("inference")
	log.Info("fitting parameters", "params", r.paramNames, "output_dir", r.outputDir)
	start := time.Now()
	result, err := proc.Run(ctx, r)
	if err != nil {
		return nil, err
	}
	log.Info("run finished", "elapsed", time.Since(start))
	return result, nil
}
