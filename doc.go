// Package starling performs Bayesian parameter inference for
// cosmological clustering statistics: given an observed summary
// statistic (e.g. a correlation function), a pretrained theory model
// that predicts that statistic from cosmological and galaxy-formation
// parameters, and a covariance matrix describing the error budget, it
// produces a posterior distribution over the free parameters.
//
// The module is organized into flat subpackages:
//
//	filters/    — select (explicit values) and slice (numeric range) filters
//	theory/     — consumed theory-model interface + factory registry
//	reader/     — consumed observation-source interface + registry
//	covariance/ — combined covariance assembly (Hartlap, volume scaling,
//	              emulator/simulation error terms) and inversion
//	likelihood/ — Gaussian log-likelihood, fixed or per-sample covariance
//	prior/      — per-parameter prior distributions and the prior set
//	config/     — YAML configuration schema and validation
//	inference/  — configuration → Runner resolution, procedure dispatch,
//	              output-directory bookkeeping
//	logging/    — structured logging setup for the runner and CLI
//	cmd/        — the starling CLI
//
// The sampler or optimizer exploring the posterior is an external
// collaborator: it implements inference.Procedure and is registered by
// name. The core's own objects are read-only once resolved, so a
// parallel sampler may share them across workers.
//
//	go get github.com/cosmoglot/starling
package starling
