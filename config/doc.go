// Package config loads and validates the inference configuration from
// YAML files. It provides typed structs for every section (statistics,
// filters, data sources, theory model, priors, inference output) and a
// translation into the filter types consumed by the rest of the module.
//
// Parsing is non-destructive: the YAML document is decoded into fresh
// structs and no input mapping is ever mutated, so resolving the same
// configuration twice yields identical results.
//
// Structural requirements are expressed as validator tags
// (go-playground/validator). Cross-field rules that tags cannot express,
// such as the volume-scaling requirement for small-volume covariance
// sources and prior coverage of free parameters, are enforced where the
// relevant components are resolved, in package inference.
package config
