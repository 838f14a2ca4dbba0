// Package rules compiles dataset profiles into piecewise sampling rules and
// emits them as a versioned, fingerprinted rule set.
package rules

import (
	"fmt"
	"io"
	"math"

	"github.com/andrewh/flightstats/pkg/dataset"
	"github.com/andrewh/flightstats/pkg/profile"
)

// Band is one contiguous range of a numeric rule. A draw u in [0,1) selects
// the first band whose Cumulative exceeds u.
type Band struct {
	Range       string  `yaml:"range" json:"range"`
	Lower       float64 `yaml:"lower" json:"lower"`
	Upper       float64 `yaml:"upper" json:"upper"`
	Probability float64 `yaml:"probability" json:"probability"`
	Cumulative  float64 `yaml:"cumulative" json:"cumulative"`
}

// NumericRule samples a value by picking a band, then a value within it.
type NumericRule struct {
	Name   string `yaml:"name" json:"name"`
	Column string `yaml:"column" json:"column"`
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`
	Bands  []Band `yaml:"bands" json:"bands"`
}

// CompileNumeric builds the bands [floor, P(b1)), [P(b1), P(b2)), ...,
// [P(bk), ceiling] from the profile's ladder. Constants that clip observed
// data are reported on warnings; constants that would invert band order are
// errors.
func CompileNumeric(name string, spec BandSpec, p profile.Numeric, warnings io.Writer) (NumericRule, error) {
	if warnings == nil {
		warnings = io.Discard
	}
	if err := spec.validate(name); err != nil {
		return NumericRule{}, err
	}

	values := make([]float64, len(spec.Breakpoints))
	for i, bp := range spec.Breakpoints {
		v, ok := p.At(bp)
		if !ok {
			return NumericRule{}, fmt.Errorf("%w: %s breakpoint P%s missing from the profile", dataset.ErrConfiguration, name, quantileLabel(bp))
		}
		if spec.Integral {
			v = math.Trunc(v)
		}
		values[i] = v
	}

	first, last := values[0], values[len(values)-1]
	if spec.Floor > first {
		return NumericRule{}, fmt.Errorf("%w: %s floor %v is above P%s = %v", dataset.ErrConfiguration, name, spec.Floor, quantileLabel(spec.Breakpoints[0]), first)
	}
	if spec.Ceiling < last {
		return NumericRule{}, fmt.Errorf("%w: %s ceiling %v is below P%s = %v", dataset.ErrConfiguration, name, spec.Ceiling, quantileLabel(spec.Breakpoints[len(values)-1]), last)
	}
	if spec.Floor > p.Min {
		fmt.Fprintf(warnings, "warning: %s floor %v is above the observed minimum %v\n", name, spec.Floor, p.Min)
	}
	if spec.Ceiling < p.Max {
		fmt.Fprintf(warnings, "warning: %s ceiling %v is below the observed maximum %v\n", name, spec.Ceiling, p.Max)
	}

	bounds := append(append([]float64{spec.Floor}, values...), spec.Ceiling)
	quantiles := append(append([]float64{0}, spec.Breakpoints...), 1)

	rule := NumericRule{
		Name:   name,
		Column: p.Query.Column.String(),
		Bands:  make([]Band, 0, len(bounds)-1),
	}
	if p.Query.Where != nil {
		rule.Filter = p.Query.Where.String()
	}
	for i := range len(bounds) - 1 {
		rule.Bands = append(rule.Bands, Band{
			Range:       "P" + quantileLabel(quantiles[i]) + "-P" + quantileLabel(quantiles[i+1]),
			Lower:       bounds[i],
			Upper:       bounds[i+1],
			Probability: quantiles[i+1] - quantiles[i],
			Cumulative:  quantiles[i+1],
		})
	}
	return rule, nil
}

// quantileLabel formats 0.25 as "25" and 1 as "100".
func quantileLabel(q float64) string {
	return fmt.Sprintf("%g", math.Round(q*1e4)/1e2)
}
