package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmoglot/starling/config"
	"github.com/cosmoglot/starling/inference"
	"github.com/cosmoglot/starling/logging"
)

// newInferCmd builds the `infer` subcommand: load the configuration,
// resolve the runner, and hand control to the configured procedure.
// The cosmology/HOD/suffix flags override the corresponding
// configuration entries, so one file can drive a whole grid of runs.
func newInferCmd() *cobra.Command {
	var (
		configPath string
		cosmology  int
		hodIdx     int
		suffix     string
	)
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run inference to completion for one configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyOverrides(cfg, cmd, cosmology, hodIdx, suffix)

			regs, procs, err := newRegistries()
			if err != nil {
				return err
			}
			runner, err := inference.Resolve(cfg, regs)
			if err != nil {
				return err
			}
			proc, err := procs.Resolve(cfg.Inference.Procedure)
			if err != nil {
				return err
			}

			log := logging.WithComponent("cli")
			log.Info("fitting parameters", "params", runner.ParamNames())
			log.Info("output dir", "path", runner.OutputDir())
			if _, err := runner.Run(cmd.Context(), proc); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "infer.yaml", "path to the YAML configuration")
	cmd.Flags().IntVar(&cosmology, "cosmology", 0, "override the observation's cosmology index")
	cmd.Flags().IntVar(&hodIdx, "hod-idx", 0, "override the observation's HOD index")
	cmd.Flags().StringVar(&suffix, "suffix", "", "append a suffix to the run directory name")
	return cmd
}

// newValidateCmd builds the `validate` subcommand: parse and validate a
// configuration without touching any data source.
func newValidateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file without running inference",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d statistic(s), output under %s\n",
				len(cfg.Statistics), inference.OutputDir(cfg))
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "infer.yaml", "path to the YAML configuration")
	return cmd
}

// applyOverrides writes flag values into the parsed configuration. Only
// flags the user actually set are applied.
func applyOverrides(cfg *config.Config, cmd *cobra.Command, cosmology, hodIdx int, suffix string) {
	if cmd.Flags().Changed("cosmology") || cmd.Flags().Changed("hod-idx") {
		if cfg.Data.Observation.GetObsArgs == nil {
			cfg.Data.Observation.GetObsArgs = map[string]any{}
		}
	}
	if cmd.Flags().Changed("cosmology") {
		cfg.Data.Observation.GetObsArgs["cosmology"] = cosmology
	}
	if cmd.Flags().Changed("hod-idx") {
		cfg.Data.Observation.GetObsArgs["hod_idx"] = hodIdx
	}
	if cmd.Flags().Changed("suffix") {
		cfg.Inference.Suffix = suffix
	}
}
