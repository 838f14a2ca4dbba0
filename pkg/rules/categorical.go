// Categorical sampling rules: cumulative thresholds over the top categories
package rules

import (
	"fmt"

	"github.com/andrewh/flightstats/pkg/dataset"
	"github.com/andrewh/flightstats/pkg/profile"
)

// Threshold is one category of a categorical rule. A draw u in [0,1) selects
// the first entry whose Cumulative exceeds u.
type Threshold struct {
	Label       string  `yaml:"label" json:"label"`
	Probability float64 `yaml:"probability" json:"probability"`
	Cumulative  float64 `yaml:"cumulative" json:"cumulative"`
}

// CategoricalRule samples a label. Draws past the last threshold take
// Fallback, the most frequent category.
type CategoricalRule struct {
	Name     string      `yaml:"name" json:"name"`
	Column   string      `yaml:"column" json:"column"`
	Entries  []Threshold `yaml:"entries" json:"entries"`
	Fallback string      `yaml:"fallback" json:"fallback"`
}

// CompileCategorical keeps the first TopN categories of c in profile order
// and accumulates their shares of the full total.
func CompileCategorical(name string, column dataset.Column, spec CategorySpec, c profile.Categorical) (CategoricalRule, error) {
	if spec.TopN < 0 {
		return CategoricalRule{}, fmt.Errorf("%w: %s top_n %d is negative", dataset.ErrConfiguration, name, spec.TopN)
	}
	if c.Total == 0 || len(c.Frequencies) == 0 {
		return CategoricalRule{}, fmt.Errorf("%w: %s has no categories", profile.ErrEmptyDataset, name)
	}

	keep := c.Frequencies
	if spec.TopN > 0 && spec.TopN < len(keep) {
		keep = keep[:spec.TopN]
	}

	rule := CategoricalRule{
		Name:     name,
		Column:   column.String(),
		Entries:  make([]Threshold, 0, len(keep)),
		Fallback: c.Mode(),
	}
	var running int64
	for _, f := range keep {
		running += f.Count
		rule.Entries = append(rule.Entries, Threshold{
			Label:       f.Label,
			Probability: float64(f.Count) / float64(c.Total),
			Cumulative:  float64(running) / float64(c.Total),
		})
	}
	return rule, nil
}
