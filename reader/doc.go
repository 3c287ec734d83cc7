// Package reader declares the contract between the inference core and
// the data layer that loads observations from disk or from a simulation
// suite.
//
// A Source yields two things for a given set of call arguments: the
// observed summary statistic (a fixed-length vector, already filtered)
// and the provenance parameters of that observation, i.e. the true
// underlying parameter values it was generated with. The provenance
// mapping is what populates fixed parameters during inference, so that
// validation runs against an observation hold its known truth values
// fixed rather than arbitrary constants.
//
// Like package theory, sources are resolved from configuration through
// an explicit Registry; unknown names fail at setup.
package reader
