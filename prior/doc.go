// Package prior builds the prior distributions sampled during
// inference.
//
// Each free parameter gets one independent univariate distribution;
// joint or correlated priors are not supported. Distribution kinds are
// resolved by name through an explicit Registry (never by reflection on
// a module): unknown kinds fail at setup with ErrUnknownDistribution,
// not at sampling time.
//
// Two kinds receive a mandatory normalization step before construction:
//
//	uniform: {min, max}          → loc = min,  scale = max − min
//	norm:    {mean, dispersion}  → loc = mean, scale = dispersion
//
// Every other registered kind is handed its parameters verbatim.
//
// A Set couples the free-parameter distributions (in theory-model input
// order) with the externally supplied fixed-parameter values; sampling a
// Set yields a complete parameter mapping covering every input the
// model requires. Set is read-only after construction except for the
// random state inside its distributions, which is why each Set owns its
// own deterministic random source.
package prior
