// Categorical frequency profiles built from grouped counts
package profile

import (
	"fmt"
	"slices"

	"github.com/andrewh/flightstats/pkg/dataset"
)

// DefaultPlaceholder labels rows whose category is missing.
const DefaultPlaceholder = "UNK"

// Frequency is one category of a categorical profile.
type Frequency struct {
	Label   string
	Count   int64
	Percent float64
}

// Categorical is a frequency table sorted by descending count.
type Categorical struct {
	Total       int64
	Frequencies []Frequency
}

// Mode returns the most frequent label.
func (c Categorical) Mode() string {
	if len(c.Frequencies) == 0 {
		return ""
	}
	return c.Frequencies[0].Label
}

// CategoricalProfile turns grouped counts into a frequency profile. The NULL
// group is relabelled placeholder and merged with any group already carrying
// that label. Ties in count keep the order of groups.
func CategoricalProfile(groups []dataset.GroupCount, placeholder string) (Categorical, error) {
	if placeholder == "" {
		return Categorical{}, fmt.Errorf("%w: empty missing-value placeholder", dataset.ErrConfiguration)
	}

	var c Categorical
	index := make(map[string]int, len(groups))
	for _, g := range groups {
		label := g.Label
		if g.Null {
			label = placeholder
		}
		c.Total += g.Count
		if i, ok := index[label]; ok {
			c.Frequencies[i].Count += g.Count
			continue
		}
		index[label] = len(c.Frequencies)
		c.Frequencies = append(c.Frequencies, Frequency{Label: label, Count: g.Count})
	}
	if c.Total == 0 {
		return Categorical{}, fmt.Errorf("%w: no categories", ErrEmptyDataset)
	}

	slices.SortStableFunc(c.Frequencies, func(a, b Frequency) int {
		switch {
		case a.Count > b.Count:
			return -1
		case a.Count < b.Count:
			return 1
		}
		return 0
	})
	for i := range c.Frequencies {
		c.Frequencies[i].Percent = 100 * float64(c.Frequencies[i].Count) / float64(c.Total)
	}
	return c, nil
}
