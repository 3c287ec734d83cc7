// Package theory declares the contract between the inference core and a
// pretrained theory model (surrogate/emulator) that predicts a summary
// statistic from cosmological and galaxy-formation parameters.
//
// The model implementation itself lives outside this module; here we
// define only the Summary interface the core consumes, the optional
// UncertaintyPredictor extension for models that report a per-bin
// variance alongside their prediction, and an explicit factory Registry
// used to resolve the model named in a configuration file.
//
// The Registry deliberately replaces reflection-style lookup of a class
// inside a named module: unknown names fail at setup with
// ErrUnknownModel, never at sampling time.
package theory
