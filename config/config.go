package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/cosmoglot/starling/filters"
)

// Sentinel errors for configuration loading.
var (
	// ErrInvalidConfig indicates a structurally invalid configuration.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrBadFilter indicates a filter section that cannot be translated.
	ErrBadFilter = errors.New("config: invalid filter specification")
)

// Config is the top-level inference configuration.
type Config struct {
	Statistics    []string             `yaml:"statistics" validate:"required,min=1,dive,required"`
	SelectFilters map[string][]float64 `yaml:"select_filters"`
	SliceFilters  map[string][]float64 `yaml:"slice_filters"`
	Data          DataConfig           `yaml:"data"`
	TheoryModel   TheoryModelConfig    `yaml:"theory_model"`
	// FixedParameters lists the parameter names held at the observation's
	// true underlying values during inference.
	FixedParameters []string     `yaml:"fixed_parameters"`
	Priors          PriorsConfig `yaml:"priors"`
	Inference       RunConfig    `yaml:"inference"`
}

// DataConfig groups the observation and covariance data sources.
type DataConfig struct {
	Observation ObservationConfig `yaml:"observation"`
	Covariance  CovarianceConfig  `yaml:"covariance"`
}

// ObservationConfig names the observation source and its arguments.
type ObservationConfig struct {
	Class string `yaml:"class" validate:"required"`
	// Args are constructor arguments for the source.
	Args map[string]any `yaml:"args"`
	// GetObsArgs are the per-call arguments selecting one observation
	// (e.g. cosmology and HOD indices).
	GetObsArgs map[string]any `yaml:"get_obs_args"`
}

// CovarianceConfig names the covariance source and the assembly flags.
type CovarianceConfig struct {
	Class   string `yaml:"class" validate:"required"`
	Dataset string `yaml:"dataset" validate:"required"`

	AddEmulatorErrorTestSet bool `yaml:"add_emulator_error_test_set"`
	AddSimulationError      bool `yaml:"add_simulation_error"`
	AddPredictedUncertainty bool `yaml:"add_predicted_uncertainty"`

	// ApplyHartlapCorrection defaults to true when absent.
	ApplyHartlapCorrection *bool `yaml:"apply_hartlap_correction"`

	// VolumeScaling is optional for most sources (defaulting to 1) but
	// mandatory for small-volume sources; absence is detectable because
	// the field is a pointer.
	VolumeScaling *float64 `yaml:"volume_scaling"`
}

// Hartlap reports the effective Hartlap flag (default true).
func (c CovarianceConfig) Hartlap() bool {
	if c.ApplyHartlapCorrection == nil {
		return true
	}
	return *c.ApplyHartlapCorrection
}

// TheoryModelConfig names the theory model and its arguments.
type TheoryModelConfig struct {
	Class string         `yaml:"class" validate:"required"`
	Args  map[string]any `yaml:"args"`
}

// PriorSpec is the distribution specification for one parameter: a kind
// name plus kind-specific numeric parameters.
type PriorSpec struct {
	Distribution string
	Params       map[string]float64
}

// UnmarshalYAML decodes a mapping of the form
//
//	{distribution: uniform, min: 0.0, max: 2.0}
//
// splitting the kind name from the numeric parameters. The source node
// is read, never rewritten.
func (p *PriorSpec) UnmarshalYAML(node *yaml.Node) error {
	raw := map[string]any{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	kind, ok := raw["distribution"].(string)
	if !ok || kind == "" {
		return fmt.Errorf("prior spec needs a distribution kind: %w", ErrInvalidConfig)
	}
	params := make(map[string]float64, len(raw)-1)
	for key, v := range raw {
		if key == "distribution" {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("prior parameter %q: %w", key, err)
		}
		params[key] = f
	}
	p.Distribution = kind
	p.Params = params
	return nil
}

// PriorsConfig maps parameter names to their prior specifications. The
// original configuration carried a "stats_module" entry naming the
// module distributions were looked up in; kinds are now resolved from a
// registry, and the entry is accepted and recorded but unused.
type PriorsConfig struct {
	StatsModule string
	Specs       map[string]PriorSpec
}

// UnmarshalYAML splits the optional stats_module key from the parameter
// specifications.
func (p *PriorsConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := map[string]yaml.Node{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	p.Specs = make(map[string]PriorSpec, len(raw))
	for key, n := range raw {
		if key == "stats_module" {
			if err := n.Decode(&p.StatsModule); err != nil {
				return err
			}
			continue
		}
		var spec PriorSpec
		if err := n.Decode(&spec); err != nil {
			return fmt.Errorf("prior for %q: %w", key, err)
		}
		p.Specs[key] = spec
	}
	return nil
}

// RunConfig holds the inference output settings.
type RunConfig struct {
	OutputDir string `yaml:"output_dir" validate:"required"`
	// Procedure names the registered sampling backend to run.
	Procedure string `yaml:"procedure" validate:"required"`
	// Seed drives prior sampling; 0 selects the stable default.
	Seed uint64 `yaml:"seed"`
	// Suffix is appended to the derived run directory name.
	Suffix string `yaml:"suffix"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs the structural tag checks and the filter translations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}
	if _, err := c.Select(); err != nil {
		return err
	}
	if _, err := c.Slice(); err != nil {
		return err
	}
	return nil
}

// Select translates the select_filters section. The YAML lists explicit
// coordinate values to keep.
func (c *Config) Select() (filters.Select, error) {
	if c.SelectFilters == nil {
		return nil, nil
	}
	out := make(filters.Select, len(c.SelectFilters))
	for coord, vals := range c.SelectFilters {
		out[coord] = append([]float64(nil), vals...)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrBadFilter)
	}
	return out, nil
}

// Slice translates the slice_filters section. Each coordinate carries a
// two-element [min, max] list.
func (c *Config) Slice() (filters.Slice, error) {
	if c.SliceFilters == nil {
		return nil, nil
	}
	out := make(filters.Slice, len(c.SliceFilters))
	for coord, bounds := range c.SliceFilters {
		if len(bounds) != 2 {
			return nil, fmt.Errorf("slice filter %q needs [min, max], got %d values: %w",
				coord, len(bounds), ErrBadFilter)
		}
		out[coord] = filters.Range{Min: bounds[0], Max: bounds[1]}
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrBadFilter)
	}
	return out, nil
}

// toFloat accepts the numeric spellings yaml.v3 produces for scalars.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T: %w", v, ErrInvalidConfig)
	}
}
