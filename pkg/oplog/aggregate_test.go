// Tests for streaming analysis, per-operation summaries, and the report table
package oplog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `2024-03-01T12:00:00Z - load in 100 ms
2024-03-01T12:00:01Z - load took 50 ms

2024-03-01T12:00:02Z - render in 500
2024-03-01T12:00:03Z - load in 300 ms
2024-03-01T12:00:04Z - render in 700µs
`

func TestAnalyze(t *testing.T) {
	t.Parallel()

	var warnings bytes.Buffer
	res, err := Analyze(strings.NewReader(sampleLog), Options{Warnings: &warnings})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Lines)
	assert.Equal(t, 4, res.Accepted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "warning: line 2: malformed line: missing \" in \" separator\n", warnings.String())

	require.Len(t, res.Summaries, 2)
	load := res.Summaries[0]
	assert.Equal(t, "load", load.Operation)
	assert.Equal(t, 2, load.Count)
	assert.InDelta(t, 200_000, load.Mean, 1e-6)
	assert.Equal(t, "200.00 ms", FormatMicros(load.Mean))
	assert.InDelta(t, 100_000, load.StdDev, 1e-6)
	assert.InDelta(t, 100_000, load.Min, 1e-6)
	assert.InDelta(t, 300_000, load.Max, 1e-6)
	assert.GreaterOrEqual(t, load.P90, load.Min)
	assert.LessOrEqual(t, load.P90, load.Max)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), load.First)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 3, 0, time.UTC), load.Last)

	render := res.Summaries[1]
	assert.Equal(t, "render", render.Operation)
	assert.InDelta(t, 600, render.Mean, 1e-6)
	assert.Equal(t, "600.00 µs", FormatMicros(render.Mean))
}

func TestAnalyzeMalformedLineDoesNotAffectOthers(t *testing.T) {
	t.Parallel()

	clean := "2024-03-01T12:00:00Z - a in 10ms\n2024-03-01T12:00:01Z - b in 20ms\n"
	dirty := "2024-03-01T12:00:00Z - a in 10ms\n2024-03-01T12:00:00Z - a 99ms\n2024-03-01T12:00:01Z - b in 20ms\n"

	want, err := Analyze(strings.NewReader(clean), Options{})
	require.NoError(t, err)
	got, err := Analyze(strings.NewReader(dirty), Options{})
	require.NoError(t, err)
	assert.Equal(t, want.Summaries, got.Summaries)
	assert.Equal(t, 1, got.Skipped)
}

func TestAnalyzeEmpty(t *testing.T) {
	t.Parallel()

	res, err := Analyze(strings.NewReader(""), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Summaries)
	assert.Zero(t, res.Lines)
}

func TestAnalyzeLineTooLong(t *testing.T) {
	t.Parallel()

	long := "2024-03-01T12:00:00Z - " + strings.Repeat("x", maxLineSize) + " in 5ms\n"
	_, err := Analyze(strings.NewReader(long), Options{})
	assert.Error(t, err)
}

func TestSummariesOrder(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range []Entry{
		{Operation: "zeta", Duration: 5 * time.Millisecond, Timestamp: ts},
		{Operation: "alpha", Duration: 5 * time.Millisecond, Timestamp: ts},
		{Operation: "slow", Duration: time.Second, Timestamp: ts},
		{Operation: "fast", Duration: time.Microsecond, Timestamp: ts},
	} {
		c.Add(e)
	}
	var names []string
	for _, s := range c.Summaries() {
		names = append(names, s.Operation)
	}
	assert.Equal(t, []string{"slow", "alpha", "zeta", "fast"}, names)
}

func TestSingleSample(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.Add(Entry{Operation: "once", Duration: 42 * time.Millisecond})
	s := c.Summaries()[0]
	assert.InDelta(t, 42_000, s.Mean, 1e-9)
	assert.InDelta(t, 0, s.StdDev, 1e-9)
	assert.InDelta(t, 42_000, s.P90, 1e-9)
}

type recordingObserver struct {
	entries []Entry
}

func (r *recordingObserver) Observe(e Entry) { r.entries = append(r.entries, e) }

func TestObserversDoNotChangeSummaries(t *testing.T) {
	t.Parallel()

	plain, err := Analyze(strings.NewReader(sampleLog), Options{})
	require.NoError(t, err)

	rec := &recordingObserver{}
	observed, err := Analyze(strings.NewReader(sampleLog), Options{Observers: []Observer{rec}})
	require.NoError(t, err)

	assert.Equal(t, plain.Summaries, observed.Summaries)
	require.Len(t, rec.entries, 4)
	assert.Equal(t, 1, rec.entries[0].Line)
	assert.Equal(t, 4, rec.entries[1].Line)
}

func TestFormatMicros(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "999.99 µs", FormatMicros(999.99))
	assert.Equal(t, "1.00 ms", FormatMicros(1000))
	assert.Equal(t, "0.25 µs", FormatMicros(0.25))
	assert.Equal(t, "120000.00 ms", FormatMicros(120_000_000))
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	res, err := Analyze(strings.NewReader(sampleLog), Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res.Summaries))
	out := buf.String()
	assert.Contains(t, out, "load")
	assert.Contains(t, out, "200.00 ms")
	assert.Contains(t, out, "100.00 ms")
	assert.Contains(t, out, "600.00 µs")
	assert.Less(t, strings.Index(out, "load"), strings.Index(out, "render"))
}
