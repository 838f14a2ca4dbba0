// Package profile derives empirical distributions from the airport dataset:
// nearest-rank percentile ladders for numeric columns and frequency tables
// for categorical ones.
package profile

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/andrewh/flightstats/pkg/dataset"
)

// ErrEmptyDataset reports a statistic requested over zero matching rows.
var ErrEmptyDataset = errors.New("empty dataset")

// Source is the read-only query surface profiles are computed from.
// *dataset.Store implements it.
type Source interface {
	Name() string
	RowCount(ctx context.Context, table dataset.Table) (int64, error)
	Count(ctx context.Context, q dataset.Query) (int64, error)
	Aggregate(ctx context.Context, q dataset.Query) (dataset.Aggregates, error)
	ValueAt(ctx context.Context, q dataset.Query, offset int64) (float64, error)
	GroupBy(ctx context.Context, c dataset.Column) ([]dataset.GroupCount, error)
	CountsPerKey(ctx context.Context, key dataset.Column) ([]dataset.GroupCount, error)
}

// Estimator computes nearest-rank percentiles against a Source.
type Estimator struct {
	src Source
}

// NewEstimator returns an Estimator reading from src.
func NewEstimator(src Source) *Estimator {
	return &Estimator{src: src}
}

// Percentile returns the value at zero-based offset floor(p*n) of the n rows
// matching q sorted ascending. The result is always an observed value.
func (e *Estimator) Percentile(ctx context.Context, q dataset.Query, p float64) (float64, error) {
	if err := checkQuantile(p); err != nil {
		return 0, err
	}
	n, err := e.src.Count(ctx, q)
	if err != nil {
		return 0, err
	}
	return e.at(ctx, q, p, n)
}

func (e *Estimator) at(ctx context.Context, q dataset.Query, p float64, n int64) (float64, error) {
	if n == 0 {
		return 0, fmt.Errorf("%w: no rows match %s", ErrEmptyDataset, q)
	}
	v, err := e.src.ValueAt(ctx, q, Offset(p, n))
	if err != nil {
		return 0, fmt.Errorf("P%s of %s: %w", quantileLabel(p), q, err)
	}
	return v, nil
}

// Offset is the nearest-rank offset floor(p*n), clamped to the last row.
func Offset(p float64, n int64) int64 {
	off := int64(math.Floor(p * float64(n)))
	if off >= n {
		off = n - 1
	}
	if off < 0 {
		off = 0
	}
	return off
}

func checkQuantile(p float64) error {
	if math.IsNaN(p) || p < 0 || p >= 1 {
		return fmt.Errorf("%w: quantile %v outside [0,1)", dataset.ErrConfiguration, p)
	}
	return nil
}

// quantileLabel formats 0.9 as "90" and 0.995 as "99.5".
func quantileLabel(p float64) string {
	return fmt.Sprintf("%g", math.Round(p*1e4)/1e2)
}
