// Per-operation aggregation of parsed entries
// Samples are collected in one streaming pass and summarised once at the end
package oplog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/aclements/go-moremath/stats"
)

// maxLineSize bounds a single log line.
const maxLineSize = 1 << 20

// Sample is one observation of an operation.
type Sample struct {
	Timestamp time.Time
	Duration  time.Duration
}

// Summary holds the statistics of one operation. Durations are microseconds.
type Summary struct {
	Operation string
	Count     int
	Mean      float64
	StdDev    float64
	P90       float64
	Min       float64
	Max       float64
	First     time.Time
	Last      time.Time
}

// Collector accumulates samples per operation.
type Collector struct {
	samples map[string][]Sample
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{samples: make(map[string][]Sample)}
}

// Add appends e to its operation's samples.
func (c *Collector) Add(e Entry) {
	c.samples[e.Operation] = append(c.samples[e.Operation], Sample{Timestamp: e.Timestamp, Duration: e.Duration})
}

// Summaries summarises every operation, sorted by descending mean with ties
// broken by operation name.
func (c *Collector) Summaries() []Summary {
	out := make([]Summary, 0, len(c.samples))
	for op, samples := range c.samples {
		out = append(out, summarise(op, samples))
	}
	slices.SortFunc(out, func(a, b Summary) int {
		switch {
		case a.Mean > b.Mean:
			return -1
		case a.Mean < b.Mean:
			return 1
		}
		return strings.Compare(a.Operation, b.Operation)
	})
	return out
}

func summarise(op string, samples []Sample) Summary {
	xs := make([]float64, len(samples))
	s := Summary{Operation: op, Count: len(samples), First: samples[0].Timestamp, Last: samples[0].Timestamp}
	for i, sm := range samples {
		xs[i] = Micros(sm.Duration)
		if sm.Timestamp.Before(s.First) {
			s.First = sm.Timestamp
		}
		if sm.Timestamp.After(s.Last) {
			s.Last = sm.Timestamp
		}
	}
	slices.Sort(xs)

	sample := stats.Sample{Xs: xs, Sorted: true}
	s.Mean = sample.Mean()
	s.Min, s.Max = sample.Bounds()
	s.P90 = sample.Quantile(0.9)
	s.StdDev = populationStdDev(xs, s.Mean)
	return s
}

// populationStdDev divides by n, not n-1.
func populationStdDev(xs []float64, mean float64) float64 {
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// Options controls Analyze.
type Options struct {
	// Warnings receives one "warning: line N: ..." line per skipped line.
	Warnings  io.Writer
	Observers []Observer
}

// Result is the outcome of analysing one log.
type Result struct {
	Summaries []Summary
	Lines     int
	Accepted  int
	Skipped   int
}

// Analyze streams r line by line, skips malformed lines with a warning, and
// summarises the accepted entries. Only read errors are returned.
func Analyze(r io.Reader, opts Options) (*Result, error) {
	warnings := opts.Warnings
	if warnings == nil {
		warnings = io.Discard
	}

	c := NewCollector()
	res := &Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		res.Lines++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := ParseLine(line)
		if err != nil {
			res.Skipped++
			fmt.Fprintf(warnings, "warning: line %d: %v\n", res.Lines, err)
			continue
		}
		e.Line = res.Lines
		res.Accepted++
		c.Add(e)
		for _, o := range opts.Observers {
			o.Observe(e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log at line %d: %w", res.Lines+1, err)
	}
	res.Summaries = c.Summaries()
	return res, nil
}
