// Profiler settings: quantile ladder, missing-value placeholder, and per-rule
// band and category specs, loaded with viper from defaults, file, and env
package rules

import (
	"fmt"
	"strings"

	"github.com/andrewh/flightstats/pkg/dataset"
	"github.com/andrewh/flightstats/pkg/profile"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FLIGHTSTATS_ELEVATION_CEILING.
const EnvPrefix = "FLIGHTSTATS"

// BandSpec configures a piecewise numeric rule. Breakpoints are quantiles in
// (0,1) that must also appear in the profile's quantile ladder. Filter is a
// row predicate such as "Length > 0"; empty profiles every non-null value.
type BandSpec struct {
	Breakpoints []float64 `mapstructure:"breakpoints"`
	Floor       float64   `mapstructure:"floor"`
	Ceiling     float64   `mapstructure:"ceiling"`
	Integral    bool      `mapstructure:"integral"`
	Filter      string    `mapstructure:"filter"`
}

// CategorySpec configures a categorical rule. TopN 0 keeps every category.
type CategorySpec struct {
	TopN int `mapstructure:"top_n"`
}

// Config holds every profiler setting.
type Config struct {
	Quantiles         []float64    `mapstructure:"quantiles"`
	Placeholder       string       `mapstructure:"placeholder"`
	Elevation         BandSpec     `mapstructure:"elevation"`
	RunwayLength      BandSpec     `mapstructure:"runway_length"`
	RunwayWidth       BandSpec     `mapstructure:"runway_width"`
	RunwaysPerAirport CategorySpec `mapstructure:"runways_per_airport"`
	RunwaySurface     CategorySpec `mapstructure:"runway_surface"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Quantiles:   append([]float64(nil), profile.DefaultQuantiles...),
		Placeholder: profile.DefaultPlaceholder,
		Elevation: BandSpec{
			Breakpoints: []float64{0.25, 0.50, 0.75, 0.90, 0.95},
			Floor:       -210,
			Ceiling:     14422,
			Integral:    true,
			Filter:      profile.DefaultFilters.Elevation,
		},
		RunwayLength: BandSpec{
			Breakpoints: []float64{0.25, 0.50, 0.75, 0.90},
			Floor:       80,
			Ceiling:     21119,
			Integral:    true,
			Filter:      profile.DefaultFilters.RunwayLength,
		},
		RunwayWidth: BandSpec{
			Breakpoints: []float64{0.25, 0.50, 0.75, 0.90},
			Floor:       9,
			Ceiling:     300,
			Integral:    true,
			Filter:      profile.DefaultFilters.RunwayWidth,
		},
		RunwaysPerAirport: CategorySpec{TopN: 0},
		RunwaySurface:     CategorySpec{TopN: 5},
	}
}

// LoadConfig layers the defaults, the optional YAML file at path, and
// FLIGHTSTATS_* environment variables, then validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading config %s: %v", dataset.ErrConfiguration, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %v", dataset.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("quantiles", cfg.Quantiles)
	v.SetDefault("placeholder", cfg.Placeholder)
	for key, spec := range map[string]BandSpec{
		"elevation":     cfg.Elevation,
		"runway_length": cfg.RunwayLength,
		"runway_width":  cfg.RunwayWidth,
	} {
		v.SetDefault(key+".breakpoints", spec.Breakpoints)
		v.SetDefault(key+".floor", spec.Floor)
		v.SetDefault(key+".ceiling", spec.Ceiling)
		v.SetDefault(key+".integral", spec.Integral)
		v.SetDefault(key+".filter", spec.Filter)
	}
	v.SetDefault("runways_per_airport.top_n", cfg.RunwaysPerAirport.TopN)
	v.SetDefault("runway_surface.top_n", cfg.RunwaySurface.TopN)
}

// Validate checks the settings are internally consistent. It cannot check
// constants against observed data; Compile does that.
func (c *Config) Validate() error {
	if len(c.Quantiles) == 0 {
		return fmt.Errorf("%w: quantiles must not be empty", dataset.ErrConfiguration)
	}
	for i, q := range c.Quantiles {
		if q < 0 || q >= 1 {
			return fmt.Errorf("%w: quantile %v outside [0,1)", dataset.ErrConfiguration, q)
		}
		if i > 0 && q <= c.Quantiles[i-1] {
			return fmt.Errorf("%w: quantiles must be strictly increasing", dataset.ErrConfiguration)
		}
	}
	if c.Placeholder == "" {
		return fmt.Errorf("%w: placeholder must not be empty", dataset.ErrConfiguration)
	}

	for _, b := range []struct {
		name   string
		column dataset.Column
		spec   BandSpec
	}{
		{"elevation", dataset.AirportElevation, c.Elevation},
		{"runway_length", dataset.RunwayLength, c.RunwayLength},
		{"runway_width", dataset.RunwayWidth, c.RunwayWidth},
	} {
		if err := b.spec.validate(b.name); err != nil {
			return err
		}
		if _, err := profile.FilteredQuery(b.column, b.spec.Filter); err != nil {
			return fmt.Errorf("%s filter: %w", b.name, err)
		}
		for _, bp := range b.spec.Breakpoints {
			if !containsQuantile(c.Quantiles, bp) {
				return fmt.Errorf("%w: %s breakpoint %v is not in the quantile ladder", dataset.ErrConfiguration, b.name, bp)
			}
		}
	}

	if c.RunwaysPerAirport.TopN < 0 || c.RunwaySurface.TopN < 0 {
		return fmt.Errorf("%w: top_n must not be negative", dataset.ErrConfiguration)
	}
	return nil
}

func (s BandSpec) validate(name string) error {
	if len(s.Breakpoints) == 0 {
		return fmt.Errorf("%w: %s needs at least one breakpoint", dataset.ErrConfiguration, name)
	}
	for i, bp := range s.Breakpoints {
		if bp <= 0 || bp >= 1 {
			return fmt.Errorf("%w: %s breakpoint %v outside (0,1)", dataset.ErrConfiguration, name, bp)
		}
		if i > 0 && bp <= s.Breakpoints[i-1] {
			return fmt.Errorf("%w: %s breakpoints must be strictly increasing", dataset.ErrConfiguration, name)
		}
	}
	if s.Floor >= s.Ceiling {
		return fmt.Errorf("%w: %s floor %v must be below ceiling %v", dataset.ErrConfiguration, name, s.Floor, s.Ceiling)
	}
	return nil
}

// Filters returns the profile filters configured on each band.
func (c *Config) Filters() *profile.Filters {
	return &profile.Filters{
		Elevation:    c.Elevation.Filter,
		RunwayLength: c.RunwayLength.Filter,
		RunwayWidth:  c.RunwayWidth.Filter,
	}
}

func containsQuantile(ladder []float64, q float64) bool {
	for _, l := range ladder {
		if l-q < 1e-9 && q-l < 1e-9 {
			return true
		}
	}
	return false
}
