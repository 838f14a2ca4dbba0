// LogObserver emits WARN log records for operations slower than a threshold
package oplog

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/log"
)

// LogObserver emits log records for slow entries.
type LogObserver struct {
	logger        log.Logger
	slowThreshold time.Duration
}

// NewLogObserver creates a LogObserver that emits logs via the given LoggerProvider.
// A slowThreshold of 0 disables it.
func NewLogObserver(lp log.LoggerProvider, slowThreshold time.Duration) *LogObserver {
	return &LogObserver{
		logger:        lp.Logger("flightstats-oplog"),
		slowThreshold: slowThreshold,
	}
}

// Observe emits a WARN record when the entry exceeds the slow threshold.
// The record carries the original log timestamp.
func (l *LogObserver) Observe(e Entry) {
	if l.slowThreshold <= 0 || e.Duration <= l.slowThreshold {
		return
	}
	var rec log.Record
	rec.SetTimestamp(e.Timestamp)
	rec.SetSeverity(log.SeverityWarn)
	rec.SetSeverityText("WARN")
	rec.SetBody(log.StringValue(fmt.Sprintf(
		"slow operation %s: %s (threshold %s)", e.Operation, e.Duration, l.slowThreshold,
	)))
	rec.AddAttributes(
		log.String("operation.name", e.Operation),
		log.Int("log.line", e.Line),
		log.Float64("operation.duration_us", e.Micros()),
	)
	l.logger.Emit(context.Background(), rec)
}
