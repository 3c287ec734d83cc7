// Package inference assembles a runnable posterior-inference object from
// configuration and drives the chosen sampling procedure.
//
// Life of a run:
//
//	Configuring — Resolve turns a config.Config plus a set of registries
//	              into a *Runner: it loads the observation and its
//	              provenance parameters, splits the theory model's inputs
//	              into free and fixed names, builds the combined
//	              covariance (package covariance), constructs the priors
//	              (package prior) and the Gaussian likelihood (package
//	              likelihood). Every failure here is a setup error; no
//	              output is written.
//	Ready       — the Runner exposes ParamNames and OutputDir before any
//	              sampling begins.
//	Running     — Run creates the output directory and delegates the
//	              sampling loop to a Procedure, which repeatedly draws
//	              parameter vectors, asks the Runner for predictions and
//	              scores them. A Runner runs at most once.
//	Done        — the Procedure's Result is whatever it persisted.
//
// Resolve is a pure function of the configuration's contents plus the
// injected registries and the external data they name: identical inputs
// produce an identical Runner. After construction the Runner's state is
// read-only; concurrent sampler workers may share it freely as long as
// per-worker random streams are used for prior draws
// (prior.DeriveSource).
//
// The run's output directory is a child of the configured output root
// whose leaf name encodes the dataset identity, statistics, loss label,
// volume scaling, separation bounds and multipole selection, so chains
// from different setups never collide. The directory is not created
// until Run starts: a setup failure leaves no partial output behind.
package inference
