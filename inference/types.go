package inference

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for runner resolution and execution.
var (
	// ErrFixedParameterUnknown indicates a fixed parameter name absent
	// from the observation's provenance parameters or from the theory
	// model's inputs.
	ErrFixedParameterUnknown = errors.New("inference: fixed parameter not known")

	// ErrPriorMissing indicates a free parameter without a prior
	// specification.
	ErrPriorMissing = errors.New("inference: no prior for free parameter")

	// ErrDimensionMismatch indicates observation and covariance sizes
	// disagree at setup, or a parameter vector of the wrong length.
	ErrDimensionMismatch = errors.New("inference: dimension mismatch")

	// ErrUncertaintyUnsupported indicates predicted-uncertainty mode was
	// configured but the theory model does not report an uncertainty.
	ErrUncertaintyUnsupported = errors.New("inference: model does not predict uncertainty")

	// ErrAlreadyRun indicates a second Run on the same Runner.
	ErrAlreadyRun = errors.New("inference: runner has already been invoked")

	// ErrUnknownProcedure indicates a configuration named a procedure the
	// registry does not provide.
	ErrUnknownProcedure = errors.New("inference: unknown procedure name")

	// ErrDuplicateProcedure indicates a second registration under the
	// same name.
	ErrDuplicateProcedure = errors.New("inference: procedure already registered")
)

// Result is whatever the procedure produced: a chain, a point estimate,
// or nothing beyond files under the output directory. The core treats
// it as opaque.
type Result any

// Procedure is one sampling or optimization backend. Run owns the
// iterative loop: it draws parameter vectors, asks the Runner for
// predictions and log-likelihoods, and persists whatever it produces
// under r.OutputDir(). Cancellation and timeouts are the procedure's
// responsibility; the context is handed through unchanged.
type Procedure interface {
	Run(ctx context.Context, r *Runner) (Result, error)
}

// ProcedureFunc adapts a plain function to the Procedure interface.
type ProcedureFunc func(ctx context.Context, r *Runner) (Result, error)

// Run calls f.
func (f ProcedureFunc) Run(ctx context.Context, r *Runner) (Result, error) { return f(ctx, r) }

// ProcedureRegistry maps configuration procedure names to backends. The
// zero value is ready to use.
type ProcedureRegistry struct {
	mu         sync.RWMutex
	procedures map[string]Procedure
}

// NewProcedureRegistry returns an empty procedure registry.
func NewProcedureRegistry() *ProcedureRegistry {
	return &ProcedureRegistry{procedures: make(map[string]Procedure)}
}

// Register adds a procedure under name; duplicates return
// ErrDuplicateProcedure.
func (r *ProcedureRegistry) Register(name string, p Procedure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.procedures == nil {
		r.procedures = make(map[string]Procedure)
	}
	if _, dup := r.procedures[name]; dup {
		return fmt.Errorf("%q: %w", name, ErrDuplicateProcedure)
	}
	r.procedures[name] = p
	return nil
}

// Resolve returns the procedure registered under name.
func (r *ProcedureRegistry) Resolve(name string) (Procedure, error) {
	r.mu.RLock()
	p, ok := r.procedures[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q (registered: %v): %w", name, r.Names(), ErrUnknownProcedure)
	}
	return p, nil
}

// Names returns the registered procedure names in sorted order.
func (r *ProcedureRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.procedures))
	for n := range r.procedures {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
