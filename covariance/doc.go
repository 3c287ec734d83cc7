// Package covariance assembles the data covariance matrix used by the
// Gaussian likelihood.
//
// The combined matrix is composed additively from up to three terms:
//
//   - a base empirical covariance, estimated from an ensemble of
//     simulations or mocks (required);
//   - an emulator-error term, the covariance of the theory model's own
//     residuals on a held-out test set (optional);
//   - a simulation-error term, the covariance contributed by the finite
//     volume of the training simulations (optional).
//
// Two corrections apply per term:
//
//   - Hartlap correction — the base and simulation-error terms, being
//     sample covariances, are each rescaled by the Hartlap factor
//     (n − nbins − 2)/(n − 1) computed from their own sample counts so
//     that the inverse is an unbiased estimator. The emulator-error term
//     is never Hartlap-corrected: it is not a sample covariance in the
//     same sense.
//   - Volume scaling — the base term is rescaled to the effective survey
//     volume. Sources estimated from small-volume simulation ensembles
//     require an explicit scaling value; omitting it is a configuration
//     error raised before any covariance computation. Other sources
//     default to a scaling of 1.
//
// Matrix addition is commutative; callers must not depend on a
// particular term order. The assembled matrix must be positive definite:
// Build factorizes it once (Cholesky) and fails with
// ErrNotPositiveDefinite rather than regularizing silently.
//
// Errors (sentinel):
//
//	– ErrMissingSource          no base covariance source was supplied.
//	– ErrVolumeScalingRequired  small-volume source without explicit scaling.
//	– ErrBadVolumeScaling       scaling value not finite and positive.
//	– ErrDimensionMismatch      terms of unequal or zero dimension.
//	– ErrBadSampleCount         Hartlap requested with n ≤ nbins + 2.
//	– ErrNotPositiveDefinite    assembled matrix fails Cholesky.
//	– ErrNonFinite              a term carries NaN or ±Inf entries.
package covariance
