// YAML and JSON serialisation of rule sets
// Floats are rounded so output is stable across platforms and runs
package rules

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// Format is a rule-set output encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// precision is the number of decimal places kept in emitted floats.
const precision = 6

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseFormat accepts "yaml", "yml", or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want yaml or json)", s)
	}
}

// Marshal encodes s. YAML output carries a header comment naming the source.
func Marshal(s *RuleSet, format Format) ([]byte, error) {
	out := rounded(s)
	switch format {
	case FormatJSON:
		data, err := jsonAPI.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshalling JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# Sampling rules profiled from %s\n# Band probabilities are quantile widths; draws past the last category use the fallback\n\n", s.Source)
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return nil, fmt.Errorf("marshalling YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("closing YAML encoder: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// rounded returns a deep copy of s with every float rounded to precision.
func rounded(s *RuleSet) *RuleSet {
	out := *s
	out.Constants = make([]Constant, len(s.Constants))
	for i, c := range s.Constants {
		out.Constants[i] = Constant{Name: c.Name, Value: roundFloat(c.Value, precision)}
	}
	out.Numeric = make([]NumericRule, len(s.Numeric))
	for i, r := range s.Numeric {
		bands := make([]Band, len(r.Bands))
		for j, b := range r.Bands {
			bands[j] = Band{
				Range:       b.Range,
				Lower:       roundFloat(b.Lower, precision),
				Upper:       roundFloat(b.Upper, precision),
				Probability: roundFloat(b.Probability, precision),
				Cumulative:  roundFloat(b.Cumulative, precision),
			}
		}
		r.Bands = bands
		out.Numeric[i] = r
	}
	out.Categorical = make([]CategoricalRule, len(s.Categorical))
	for i, r := range s.Categorical {
		entries := make([]Threshold, len(r.Entries))
		for j, e := range r.Entries {
			entries[j] = Threshold{
				Label:       e.Label,
				Probability: roundFloat(e.Probability, precision),
				Cumulative:  roundFloat(e.Cumulative, precision),
			}
		}
		r.Entries = entries
		out.Categorical[i] = r
	}
	return &out
}

// roundFloat rounds a float to n decimal places.
func roundFloat(f float64, n int) float64 {
	shift := math.Pow10(n)
	return math.Round(f*shift) / shift
}
