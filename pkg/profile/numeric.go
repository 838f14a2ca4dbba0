// Numeric column profiles: scalar aggregates plus a percentile ladder
package profile

import (
	"context"
	"fmt"
	"math"

	"github.com/andrewh/flightstats/pkg/dataset"
)

// DefaultQuantiles is the percentile ladder computed for every numeric column.
var DefaultQuantiles = []float64{0.10, 0.25, 0.50, 0.60, 0.75, 0.85, 0.90, 0.95, 0.99}

// quantileTolerance is how close two quantiles must be to be considered equal.
const quantileTolerance = 1e-9

// QuantileValue is one rung of a percentile ladder.
type QuantileValue struct {
	Quantile float64
	Value    float64
}

// Label is the rung's percentile number, e.g. "90" for 0.9.
func (qv QuantileValue) Label() string {
	return quantileLabel(qv.Quantile)
}

// Numeric is the profile of one numeric column under an optional filter.
type Numeric struct {
	Query  dataset.Query
	Count  int64
	Min    float64
	Max    float64
	Mean   float64
	Ladder []QuantileValue
}

// At returns the ladder value at quantile q.
func (n Numeric) At(q float64) (float64, bool) {
	for _, qv := range n.Ladder {
		if math.Abs(qv.Quantile-q) < quantileTolerance {
			return qv.Value, true
		}
	}
	return 0, false
}

// NumericProfile computes the profile of q from one aggregate query and one
// order-statistic query per quantile. quantiles must be strictly increasing
// within [0,1).
func NumericProfile(ctx context.Context, src Source, q dataset.Query, quantiles []float64) (Numeric, error) {
	if err := checkLadder(quantiles); err != nil {
		return Numeric{}, err
	}
	agg, err := src.Aggregate(ctx, q)
	if err != nil {
		return Numeric{}, err
	}
	if agg.Count == 0 {
		return Numeric{}, fmt.Errorf("%w: no rows match %s", ErrEmptyDataset, q)
	}

	est := NewEstimator(src)
	n := Numeric{
		Query:  q,
		Count:  agg.Count,
		Min:    agg.Min,
		Max:    agg.Max,
		Mean:   agg.Mean,
		Ladder: make([]QuantileValue, 0, len(quantiles)),
	}
	for _, p := range quantiles {
		v, err := est.at(ctx, q, p, agg.Count)
		if err != nil {
			return Numeric{}, err
		}
		n.Ladder = append(n.Ladder, QuantileValue{Quantile: p, Value: v})
	}
	return n, nil
}

func checkLadder(quantiles []float64) error {
	if len(quantiles) == 0 {
		return fmt.Errorf("%w: empty quantile ladder", dataset.ErrConfiguration)
	}
	for i, p := range quantiles {
		if err := checkQuantile(p); err != nil {
			return err
		}
		if i > 0 && p <= quantiles[i-1] {
			return fmt.Errorf("%w: quantiles must be strictly increasing (%v after %v)", dataset.ErrConfiguration, p, quantiles[i-1])
		}
	}
	return nil
}
