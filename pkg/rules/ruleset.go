// Rule-set assembly: numeric and categorical rules plus named constants,
// fingerprinted by content so identical inputs give identical output
package rules

import (
	"fmt"
	"io"
	"strings"

	"github.com/andrewh/flightstats/pkg/dataset"
	"github.com/andrewh/flightstats/pkg/profile"
	"github.com/google/uuid"
)

// Version is the rule-set schema version.
const Version = 1

// Rule names.
const (
	Elevation         = "elevation"
	RunwayLength      = "runway_length"
	RunwayWidth       = "runway_width"
	RunwaysPerAirport = "runways_per_airport"
	RunwaySurface     = "runway_surface"
)

// fingerprintNamespace scopes rule-set fingerprints.
var fingerprintNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/andrewh/flightstats/rules"))

// Constant is a named value for consumers that hard-code band edges.
type Constant struct {
	Name  string  `yaml:"name" json:"name"`
	Value float64 `yaml:"value" json:"value"`
}

// RuleSet is everything the sampler needs, derived from one dataset run.
type RuleSet struct {
	Version     int               `yaml:"version" json:"version"`
	Source      string            `yaml:"source" json:"source"`
	Fingerprint string            `yaml:"fingerprint" json:"fingerprint"`
	Constants   []Constant        `yaml:"constants" json:"constants"`
	Numeric     []NumericRule     `yaml:"numeric" json:"numeric"`
	Categorical []CategoricalRule `yaml:"categorical" json:"categorical"`
}

// NumericRule returns the numeric rule called name.
func (s *RuleSet) NumericRule(name string) (NumericRule, bool) {
	for _, r := range s.Numeric {
		if r.Name == name {
			return r, true
		}
	}
	return NumericRule{}, false
}

// CategoricalRule returns the categorical rule called name.
func (s *RuleSet) CategoricalRule(name string) (CategoricalRule, bool) {
	for _, r := range s.Categorical {
		if r.Name == name {
			return r, true
		}
	}
	return CategoricalRule{}, false
}

// Compile turns a Report into a RuleSet. Nothing is returned unless every
// rule compiles.
func Compile(r *profile.Report, cfg *Config, warnings io.Writer) (*RuleSet, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	set := &RuleSet{Version: Version, Source: r.Source}
	for _, n := range []struct {
		name    string
		spec    BandSpec
		profile profile.Numeric
	}{
		{Elevation, cfg.Elevation, r.Elevation},
		{RunwayLength, cfg.RunwayLength, r.RunwayLength},
		{RunwayWidth, cfg.RunwayWidth, r.RunwayWidth},
	} {
		rule, err := CompileNumeric(n.name, n.spec, n.profile, warnings)
		if err != nil {
			return nil, err
		}
		set.Numeric = append(set.Numeric, rule)
		set.Constants = append(set.Constants, constants(rule)...)
	}

	for _, c := range []struct {
		name    string
		column  dataset.Column
		spec    CategorySpec
		profile profile.Categorical
	}{
		{RunwaysPerAirport, dataset.RunwayAirportID, cfg.RunwaysPerAirport, r.RunwaysPerAirport},
		{RunwaySurface, dataset.RunwaySurface, cfg.RunwaySurface, r.Surface},
	} {
		rule, err := CompileCategorical(c.name, c.column, c.spec, c.profile)
		if err != nil {
			return nil, err
		}
		set.Categorical = append(set.Categorical, rule)
	}

	fp, err := fingerprint(set)
	if err != nil {
		return nil, err
	}
	set.Fingerprint = fp
	return set, nil
}

// constants names the band edges of rule: <RULE>_FLOOR, <RULE>_P<nn> for
// each interior edge, and <RULE>_CEILING.
func constants(rule NumericRule) []Constant {
	prefix := strings.ToUpper(rule.Name)
	out := make([]Constant, 0, len(rule.Bands)+1)
	out = append(out, Constant{Name: prefix + "_FLOOR", Value: rule.Bands[0].Lower})
	for _, b := range rule.Bands[1:] {
		from, _, _ := strings.Cut(b.Range, "-")
		out = append(out, Constant{Name: prefix + "_" + from, Value: b.Lower})
	}
	return append(out, Constant{Name: prefix + "_CEILING", Value: rule.Bands[len(rule.Bands)-1].Upper})
}

// fingerprint hashes the rounded JSON form of s with the source and
// fingerprint fields blanked, so it depends on rule content only.
func fingerprint(s *RuleSet) (string, error) {
	canon := rounded(s)
	canon.Source = ""
	canon.Fingerprint = ""
	data, err := jsonAPI.Marshal(canon)
	if err != nil {
		return "", fmt.Errorf("canonicalising rule set: %w", err)
	}
	return uuid.NewSHA1(fingerprintNamespace, data).String(), nil
}
