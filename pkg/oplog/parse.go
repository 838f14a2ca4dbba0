// Package oplog analyses operation-timing log lines of the form
// "<timestamp> - <operation> in <duration>" and summarises them per operation.
package oplog

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedLine reports a line that does not match the log format.
var ErrMalformedLine = errors.New("malformed line")

// Entry is one accepted log line.
type Entry struct {
	Line      int
	Timestamp time.Time
	Operation string
	Duration  time.Duration
}

// Micros returns the entry's duration in microseconds.
func (e Entry) Micros() float64 {
	return Micros(e.Duration)
}

// Micros converts d to fractional microseconds.
func Micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

// ParseLine splits line on the first " - " into timestamp and rest, then
// splits rest on the last " in " into operation name and duration.
func ParseLine(line string) (Entry, error) {
	stamp, rest, ok := strings.Cut(strings.TrimSpace(line), " - ")
	if !ok {
		return Entry{}, fmt.Errorf("%w: missing \" - \" separator", ErrMalformedLine)
	}
	i := strings.LastIndex(rest, " in ")
	if i < 0 {
		return Entry{}, fmt.Errorf("%w: missing \" in \" separator", ErrMalformedLine)
	}
	op := strings.TrimSpace(rest[:i])
	if op == "" {
		return Entry{}, fmt.Errorf("%w: empty operation name", ErrMalformedLine)
	}

	ts, err := ParseTimestamp(stamp)
	if err != nil {
		return Entry{}, err
	}
	d, err := ParseDuration(rest[i+len(" in "):])
	if err != nil {
		return Entry{}, err
	}
	return Entry{Timestamp: ts, Operation: op, Duration: d}, nil
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 timestamp with optional fractional
// seconds, a T or space separator, and an optional zone ("Z", an offset, or
// a trailing " UTC"). Timestamps without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " UTC")
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedLine, s)
}

var durationPattern = regexp.MustCompile(`^([+-]?(?:\d+(?:\.\d*)?|\.\d+))\s*(\S*)$`)

// unitAliases maps accepted unit suffixes to time.ParseDuration units.
// No suffix means microseconds.
var unitAliases = map[string]string{
	"":    "us",
	"ns":  "ns",
	"us":  "us",
	"µs":  "us", // U+00B5 micro sign
	"μs":  "us", // U+03BC Greek mu
	"Âµs": "us", // UTF-8 micro sign read as Latin-1
	"ms":  "ms",
	"s":   "s",
	"m":   "m",
}

// unitNanos is the length of each canonical unit in nanoseconds.
var unitNanos = map[string]float64{
	"ns": 1,
	"us": float64(time.Microsecond),
	"ms": float64(time.Millisecond),
	"s":  float64(time.Second),
	"m":  float64(time.Minute),
}

// ParseDuration parses "<number>[ ]<unit>" where unit is one of ns, us, µs,
// ms, s, or m. A bare number is microseconds. Negative values are rejected.
//
// Durations resolve to whole nanoseconds: "1.5 ns" is 1ns and "0.4 ns" is
// zero. Values longer than the largest time.Duration (about 292 years) are
// rejected as out of range.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: bad duration %q", ErrMalformedLine, s)
	}
	number, suffix := m[1], m[2]
	if strings.HasPrefix(number, "-") {
		return 0, fmt.Errorf("%w: negative duration %q", ErrMalformedLine, s)
	}
	unit, ok := unitAliases[suffix]
	if !ok {
		return 0, fmt.Errorf("%w: unknown duration unit %q", ErrMalformedLine, suffix)
	}
	number = strings.TrimPrefix(number, "+")
	if f, err := strconv.ParseFloat(number, 64); err == nil && f*unitNanos[unit] > math.MaxInt64 {
		return 0, fmt.Errorf("%w: duration %q out of range", ErrMalformedLine, s)
	}
	d, err := time.ParseDuration(number + unit)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}
	return d, nil
}
