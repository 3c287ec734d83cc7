package inference

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cosmoglot/starling/config"
	"github.com/cosmoglot/starling/covariance"
)

// OutputDir derives the run-specific output directory: a child of the
// configured output root whose leaf name encodes what was fit and how,
// so chains from different setups never collide:
//
//	{dataset}[_{obs args}]_{stats}[_{loss}]_vol{v}_smin{a}_smax{b}[_m{sel}][_{suffix}]
//
// Observation arguments are rendered sorted by key for determinism.
// Separation bounds come from the "s" slice filter and the selection tag
// from the "multipoles" select filter; either is omitted when not
// configured.
func OutputDir(cfg *config.Config) string {
	parts := []string{cfg.Data.Covariance.Dataset}

	keys := make([]string, 0, len(cfg.Data.Observation.GetObsArgs))
	for k := range cfg.Data.Observation.GetObsArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s%v", k, cfg.Data.Observation.GetObsArgs[k]))
	}

	parts = append(parts, strings.Join(cfg.Statistics, "_"))

	if loss, ok := cfg.TheoryModel.Args["loss"].(string); ok && loss != "" {
		parts = append(parts, loss)
	}

	vol := covariance.DefaultVolumeScaling
	if cfg.Data.Covariance.VolumeScaling != nil {
		vol = *cfg.Data.Covariance.VolumeScaling
	}
	parts = append(parts, fmt.Sprintf("vol%g", vol))

	if sli, err := cfg.Slice(); err == nil {
		if r, ok := sli.Bounds("s"); ok {
			parts = append(parts, fmt.Sprintf("smin%.2f_smax%.2f", r.Min, r.Max))
		}
	}
	if sel, err := cfg.Select(); err == nil {
		if label := sel.Label("multipoles"); label != "" {
			parts = append(parts, "m"+label)
		}
	}

	if cfg.Inference.Suffix != "" {
		parts = append(parts, cfg.Inference.Suffix)
	}

	return filepath.Join(cfg.Inference.OutputDir, strings.Join(parts, "_"))
}
