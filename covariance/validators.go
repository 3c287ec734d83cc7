// Package covariance — canonical validation checks shared by assembly
// and inversion.
//
// Purpose:
//   - Keep Build/Assemble minimal by delegating nil/shape/finiteness
//     checks here.
//   - Return plain sentinel errors so call sites can wrap uniformly.
//
// All checks are pure and deterministic; the finiteness scan runs O(n²)
// on the upper triangle only (SymDense storage).

package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// validateNotNil ensures the matrix reference is non-nil and non-empty.
func validateNotNil(m *mat.SymDense) error {
	if m == nil || m.SymmetricDim() == 0 {
		return fmt.Errorf("nil or empty matrix: %w", ErrDimensionMismatch)
	}
	return nil
}

// validateSameDim ensures matrices a and b have equal dimension.
// Assumes both are non-nil (caller must ensure).
func validateSameDim(a, b *mat.SymDense) error {
	if a.SymmetricDim() != b.SymmetricDim() {
		return fmt.Errorf("%dx%d vs %dx%d: %w",
			a.SymmetricDim(), a.SymmetricDim(), b.SymmetricDim(), b.SymmetricDim(), ErrDimensionMismatch)
	}
	return nil
}

// validateFinite rejects NaN and ±Inf anywhere in the upper triangle.
func validateFinite(m *mat.SymDense) error {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("entry (%d,%d)=%v: %w", i, j, v, ErrNonFinite)
			}
		}
	}
	return nil
}

// validateTerm runs the composite check sequence (NotNil → Finite) on a
// single covariance term.
func validateTerm(m *mat.SymDense) error {
	if err := validateNotNil(m); err != nil {
		return err
	}
	return validateFinite(m)
}
