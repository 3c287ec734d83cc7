// Package theorytest provides a deterministic in-memory Summary used by
// tests across the module. The model is affine in its parameters:
//
//	prediction[j] = bias[j] + Σ_i weight[i][j] * params[name_i]
//
// which makes expected values trivial to compute by hand while still
// exercising the full Predict/PredictBatch contract, including the
// requirement that batched evaluation equals per-row evaluation.
package theorytest

import (
	"fmt"

	"github.com/cosmoglot/starling/filters"
)

// Affine is a linear-plus-bias Summary with an optional per-bin
// prediction uncertainty.
type Affine struct {
	Names   []string             // parameter names, in declared order
	Bias    []float64            // one entry per output bin
	Weights map[string][]float64 // per-parameter contribution per bin
	Sigma   []float64            // optional predicted std deviation per bin
}

// InputNames returns the declared parameter order.
func (a *Affine) InputNames() []string { return append([]string(nil), a.Names...) }

// Predict evaluates the affine model for one parameter mapping.
func (a *Affine) Predict(params map[string]float64, _ filters.Select, _ filters.Slice) ([]float64, error) {
	out := make([]float64, len(a.Bias))
	copy(out, a.Bias)
	for _, name := range a.Names {
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("theorytest: missing parameter %q", name)
		}
		for j, w := range a.Weights[name] {
			out[j] += w * v
		}
	}
	return out, nil
}

// PredictBatch evaluates one row per batch entry by delegating to
// Predict, guaranteeing batch/scalar agreement by construction.
func (a *Affine) PredictBatch(params map[string][]float64, sel filters.Select, sli filters.Slice) ([][]float64, error) {
	n := -1
	for name, col := range params {
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return nil, fmt.Errorf("theorytest: ragged batch for %q", name)
		}
	}
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		point := make(map[string]float64, len(params))
		for name, col := range params {
			point[name] = col[i]
		}
		row, err := a.Predict(point, sel, sli)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

// PredictUncertainty returns the configured per-bin standard deviation,
// or zeros when none was set.
func (a *Affine) PredictUncertainty(_ map[string]float64, _ filters.Select, _ filters.Slice) ([]float64, error) {
	if a.Sigma == nil {
		return make([]float64, len(a.Bias)), nil
	}
	return append([]float64(nil), a.Sigma...), nil
}
