// Property-based tests for percentile ladders and frequency profiles
// using pgregory.net/rapid
package profile

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/andrewh/flightstats/pkg/dataset"
	"pgregory.net/rapid"
)

func genQuantiles(t *rapid.T) []float64 {
	n := rapid.IntRange(1, 12).Draw(t, "nQuantiles")
	set := make(map[int]bool, n)
	for i := range n {
		set[rapid.IntRange(0, 999).Draw(t, fmt.Sprintf("q%d", i))] = true
	}
	var qs []float64
	for k := range set {
		qs = append(qs, float64(k)/1000)
	}
	slices.Sort(qs)
	return qs
}

func TestPropertyLadderMonotoneAndObserved(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.IntRange(-500, 15000), 1, 200).Draw(t, "values")
		vals := make([]float64, len(raw))
		for i, v := range raw {
			vals[i] = float64(v)
		}
		quantiles := genQuantiles(t)

		n, err := NumericProfile(context.Background(), elevations(vals...), elevationQuery, quantiles)
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		prev := n.Min
		for _, qv := range n.Ladder {
			if qv.Value < prev {
				t.Fatalf("ladder decreases at P%s: %v < %v", qv.Label(), qv.Value, prev)
			}
			if !slices.Contains(vals, qv.Value) {
				t.Fatalf("P%s = %v is not an observed value", qv.Label(), qv.Value)
			}
			prev = qv.Value
		}
		if prev > n.Max {
			t.Fatalf("last rung %v above max %v", prev, n.Max)
		}
	})
}

func TestPropertyCategoricalPercentages(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		labels := rapid.SliceOfNDistinct(rapid.StringMatching(`[A-Z]{3}`), 1, 10, rapid.ID[string]).Draw(t, "labels")
		groups := make([]dataset.GroupCount, 0, len(labels)+1)
		if rapid.Bool().Draw(t, "withNull") {
			groups = append(groups, dataset.GroupCount{Null: true, Count: rapid.Int64Range(1, 1000).Draw(t, "nullCount")})
		}
		for i, l := range labels {
			groups = append(groups, dataset.GroupCount{Label: l, Count: rapid.Int64Range(1, 1000).Draw(t, fmt.Sprintf("count%d", i))})
		}

		c, err := CategoricalProfile(groups, DefaultPlaceholder)
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		var sum float64
		var total int64
		for i, f := range c.Frequencies {
			if i > 0 && f.Count > c.Frequencies[i-1].Count {
				t.Fatalf("not sorted by descending count at %d", i)
			}
			sum += f.Percent
			total += f.Count
		}
		if total != c.Total {
			t.Fatalf("counts sum to %d, total %d", total, c.Total)
		}
		if sum < 100-1e-6 || sum > 100+1e-6 {
			t.Fatalf("percentages sum to %v", sum)
		}
	})
}
