// Package likelihood implements the Gaussian log-likelihood that scores
// theory-model predictions against an observed summary statistic.
//
// With difference d = prediction − observation and data covariance C,
// the score is
//
//	loglike = −0.5 · dᵀ · C⁻¹ · d
//
// Two covariance modes exist:
//
//   - Fixed mode (default): C is constant for the whole run, so C⁻¹ is
//     computed once at construction and every evaluation is a single
//     quadratic form.
//   - Predicted-uncertainty mode: the theory model reports a per-bin
//     variance σ² for each prediction; the effective covariance for that
//     evaluation is C + diag(σ²) and must be inverted fresh every call,
//     since σ² varies per parameter sample. Strictly more expensive;
//     enable only when configured.
//
// The batched entry point exists purely for throughput: it is required
// to produce, row by row, the same values as N independent scalar
// evaluations. With σ² = 0 the two modes agree exactly.
//
// No other likelihood family is in scope.
package likelihood
