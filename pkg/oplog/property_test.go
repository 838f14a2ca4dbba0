// Property-based tests for duration parsing and aggregation using pgregory.net/rapid
package oplog

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

var unitMicros = map[string]float64{
	"ns":  0.001,
	"us":  1,
	"µs":  1,
	"Âµs": 1,
	"ms":  1000,
	"s":   1_000_000,
	"m":   60_000_000,
	"":    1,
}

func TestPropertyDurationUnits(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.IntRange(0, 100_000).Draw(t, "value")
		unit := rapid.SampledFrom([]string{"ns", "us", "µs", "Âµs", "ms", "s", "m", ""}).Draw(t, "unit")
		sep := rapid.SampledFrom([]string{"", " "}).Draw(t, "sep")

		d, err := ParseDuration(fmt.Sprintf("%d%s%s", v, sep, unit))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		want := float64(v) * unitMicros[unit]
		if math.Abs(Micros(d)-want) > 1e-9*math.Max(1, want) {
			t.Fatalf("%d%s = %v µs, want %v", v, unit, Micros(d), want)
		}
	})
}

func TestPropertySummariesIndependentOfOrder(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		ops := []string{"load", "render", "plan", "save"}
		n := rapid.IntRange(1, 40).Draw(t, "n")
		lines := make([]string, n)
		for i := range n {
			op := rapid.SampledFrom(ops).Draw(t, fmt.Sprintf("op%d", i))
			ms := rapid.IntRange(0, 5000).Draw(t, fmt.Sprintf("ms%d", i))
			lines[i] = fmt.Sprintf("2024-03-01T12:00:%02dZ - %s in %d ms", i%60, op, ms)
		}
		shuffled := rapid.Permutation(lines).Draw(t, "shuffled")

		a, err := Analyze(strings.NewReader(strings.Join(lines, "\n")), Options{})
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		b, err := Analyze(strings.NewReader(strings.Join(shuffled, "\n")), Options{})
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		if len(a.Summaries) != len(b.Summaries) {
			t.Fatalf("summary counts differ")
		}
		for i := range a.Summaries {
			sa, sb := a.Summaries[i], b.Summaries[i]
			if sa.Operation != sb.Operation || sa.Count != sb.Count || !sa.First.Equal(sb.First) || !sa.Last.Equal(sb.Last) {
				t.Fatalf("summary %d differs: %+v vs %+v", i, sa, sb)
			}
			if math.Abs(sa.Mean-sb.Mean) > 1e-6 || math.Abs(sa.StdDev-sb.StdDev) > 1e-6 || math.Abs(sa.P90-sb.P90) > 1e-6 {
				t.Fatalf("statistics of %s differ", sa.Operation)
			}
			if sa.P90 < sa.Min || sa.P90 > sa.Max {
				t.Fatalf("P90 %v outside [%v, %v]", sa.P90, sa.Min, sa.Max)
			}
			if i > 0 && a.Summaries[i-1].Mean < sa.Mean {
				t.Fatalf("not sorted by descending mean at %d", i)
			}
		}
	})
}
