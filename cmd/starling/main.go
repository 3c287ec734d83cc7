// Command starling runs Bayesian parameter inference for clustering
// statistics from a YAML configuration file.
//
// The binary ships with the builtin prior distribution kinds only;
// deployments link their theory models, data readers, covariance
// sources and sampling procedures by registering them (see
// RegisterComponents) before building.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cosmoglot/starling/covariance"
	"github.com/cosmoglot/starling/inference"
	"github.com/cosmoglot/starling/logging"
	"github.com/cosmoglot/starling/prior"
	"github.com/cosmoglot/starling/reader"
	"github.com/cosmoglot/starling/theory"
)

// RegisterComponents is the hook deployments override (or call from an
// init function in a linked-in package) to install their theory models,
// data sources and procedures.
var RegisterComponents = func(regs inference.Registries, procs *inference.ProcedureRegistry) error {
	return nil
}

func newRegistries() (inference.Registries, *inference.ProcedureRegistry, error) {
	regs := inference.Registries{
		Theory:        theory.NewRegistry(),
		Reader:        reader.NewRegistry(),
		Covariance:    covariance.NewSourceRegistry(),
		Distributions: prior.NewRegistry(),
	}
	procs := inference.NewProcedureRegistry()
	if err := RegisterComponents(regs, procs); err != nil {
		return inference.Registries{}, nil, err
	}
	return regs, procs, nil
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string
	root := &cobra.Command{
		Use:   "starling",
		Short: "Bayesian inference for cosmological clustering statistics",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel, logFormat)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text|json")
	root.AddCommand(newInferCmd(), newValidateCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
