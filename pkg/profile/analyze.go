// Whole-dataset profile of airports and runways
// Runs every statistic the rule compiler and the summary need, in order
package profile

import (
	"context"
	"fmt"
	"strconv"

	"github.com/andrewh/flightstats/pkg/dataset"
)

// Filters are the row predicates applied to each numeric profile, in the
// textual form accepted by dataset.ParsePredicate. An empty string keeps
// every non-null value.
type Filters struct {
	Elevation    string
	RunwayLength string
	RunwayWidth  string
}

// DefaultFilters drops zero-length and zero-width placeholder runways.
var DefaultFilters = Filters{
	RunwayLength: "Length > 0",
	RunwayWidth:  "Width > 0",
}

// Options controls a profiling run. A nil Filters uses DefaultFilters.
type Options struct {
	Quantiles   []float64
	Placeholder string
	Filters     *Filters
}

func (o Options) withDefaults() Options {
	if len(o.Quantiles) == 0 {
		o.Quantiles = DefaultQuantiles
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	if o.Filters == nil {
		f := DefaultFilters
		o.Filters = &f
	}
	return o
}

// FilteredQuery builds the query for column restricted by filter, parsed
// against the column's table.
func FilteredQuery(column dataset.Column, filter string) (dataset.Query, error) {
	q := dataset.Query{Column: column}
	if filter == "" {
		return q, nil
	}
	p, err := dataset.ParsePredicate(column.Table, filter)
	if err != nil {
		return dataset.Query{}, err
	}
	q.Where = &p
	return q, nil
}

// Bounds is the geographic extent of the airports.
type Bounds struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// Report is the complete profile of one dataset snapshot.
type Report struct {
	Source            string
	Airports          int64
	Elevation         Numeric
	Bounds            Bounds
	Runways           int64
	RunwaysPerAirport Categorical
	AverageRunways    float64
	RunwayLength      Numeric
	RunwayWidth       Numeric
	Surface           Categorical
}

// Analyze profiles the dataset behind src. Any failing statistic aborts the
// run; a partial Report is never returned.
func Analyze(ctx context.Context, src Source, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	elevation, err := FilteredQuery(dataset.AirportElevation, opts.Filters.Elevation)
	if err != nil {
		return nil, err
	}
	length, err := FilteredQuery(dataset.RunwayLength, opts.Filters.RunwayLength)
	if err != nil {
		return nil, err
	}
	width, err := FilteredQuery(dataset.RunwayWidth, opts.Filters.RunwayWidth)
	if err != nil {
		return nil, err
	}

	r := &Report{Source: src.Name()}
	if r.Airports, err = src.RowCount(ctx, dataset.Airports); err != nil {
		return nil, err
	}
	if r.Elevation, err = NumericProfile(ctx, src, elevation, opts.Quantiles); err != nil {
		return nil, fmt.Errorf("elevation: %w", err)
	}
	if r.Bounds, err = bounds(ctx, src); err != nil {
		return nil, err
	}

	if r.Runways, err = src.RowCount(ctx, dataset.Runways); err != nil {
		return nil, err
	}
	perAirport, err := src.CountsPerKey(ctx, dataset.RunwayAirportID)
	if err != nil {
		return nil, err
	}
	if r.RunwaysPerAirport, err = CategoricalProfile(perAirport, opts.Placeholder); err != nil {
		return nil, fmt.Errorf("runways per airport: %w", err)
	}
	if r.AverageRunways, err = averagePerKey(perAirport); err != nil {
		return nil, err
	}

	if r.RunwayLength, err = NumericProfile(ctx, src, length, opts.Quantiles); err != nil {
		return nil, fmt.Errorf("runway length: %w", err)
	}
	if r.RunwayWidth, err = NumericProfile(ctx, src, width, opts.Quantiles); err != nil {
		return nil, fmt.Errorf("runway width: %w", err)
	}

	surfaces, err := src.GroupBy(ctx, dataset.RunwaySurface)
	if err != nil {
		return nil, err
	}
	if r.Surface, err = CategoricalProfile(surfaces, opts.Placeholder); err != nil {
		return nil, fmt.Errorf("runway surface: %w", err)
	}
	return r, nil
}

func bounds(ctx context.Context, src Source) (Bounds, error) {
	lat, err := src.Aggregate(ctx, dataset.Query{Column: dataset.AirportLatitude})
	if err != nil {
		return Bounds{}, err
	}
	lon, err := src.Aggregate(ctx, dataset.Query{Column: dataset.AirportLongitude})
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{
		MinLatitude:  lat.Min,
		MaxLatitude:  lat.Max,
		MinLongitude: lon.Min,
		MaxLongitude: lon.Max,
	}, nil
}

// averagePerKey is the mean rows per key over keys with at least one row.
func averagePerKey(groups []dataset.GroupCount) (float64, error) {
	var rows, keys int64
	for _, g := range groups {
		perKey, err := strconv.ParseInt(g.Label, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("rows-per-key label %q: %w", g.Label, err)
		}
		rows += perKey * g.Count
		keys += g.Count
	}
	if keys == 0 {
		return 0, fmt.Errorf("%w: no keys", ErrEmptyDataset)
	}
	return float64(rows) / float64(keys), nil
}
