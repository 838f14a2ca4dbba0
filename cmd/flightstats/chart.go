// SVG bar chart of mean operation duration with standard deviation error bars
package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/andrewh/flightstats/pkg/oplog"
)

// ChartRenderer draws operation summaries in some output format.
type ChartRenderer interface {
	Render(w io.Writer, summaries []oplog.Summary) error
}

const defaultChartPath = "operation_durations.svg"

const (
	svgWidth     = 800
	svgHeight    = 400
	marginTop    = 40
	marginRight  = 20
	marginBottom = 80
	marginLeft   = 70
	plotWidth    = svgWidth - marginLeft - marginRight
	plotHeight   = svgHeight - marginTop - marginBottom
	gridLines    = 5
	whiskerWidth = 8
)

// svgChart renders one bar per operation in the order given, height
// proportional to the mean in milliseconds, with a ±stddev whisker.
type svgChart struct {
	title string
}

func (c svgChart) Render(w io.Writer, summaries []oplog.Summary) error {
	if len(summaries) == 0 {
		return fmt.Errorf("no operations to chart")
	}

	maxMs := 0.0
	for _, s := range summaries {
		maxMs = math.Max(maxMs, (s.Mean+s.StdDev)/1000)
	}
	if maxMs == 0 {
		maxMs = 1
	}
	maxMs *= 1.1

	scaleY := func(ms float64) float64 {
		return float64(marginTop+plotHeight) - float64(plotHeight)*ms/maxMs
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`, svgWidth, svgHeight, svgWidth, svgHeight))
	b.WriteString("\n<style>\n")
	b.WriteString("  text { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; fill: #333; }\n")
	b.WriteString("  .title { font-size: 14px; font-weight: 600; }\n")
	b.WriteString("  .axis-label { font-size: 11px; }\n")
	b.WriteString("  .tick-label { font-size: 10px; fill: #666; }\n")
	b.WriteString("  .grid { stroke: #e0e0e0; stroke-width: 1; }\n")
	b.WriteString("  .bar { fill: #87ceeb; stroke: #2563eb; stroke-width: 1; }\n")
	b.WriteString("  .error-bar { stroke: #333; stroke-width: 1.5; }\n")
	b.WriteString("</style>\n")

	b.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, svgWidth, svgHeight))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf(`<text x="%d" y="24" class="title">%s</text>`, marginLeft, xmlEscape(c.title)))
	b.WriteString("\n")

	for i := 0; i <= gridLines; i++ {
		y := marginTop + plotHeight - int(float64(i)*float64(plotHeight)/float64(gridLines))
		b.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid"/>`, marginLeft, y, marginLeft+plotWidth, y))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf(`<text x="%d" y="%d" text-anchor="end" class="tick-label">%s</text>`, marginLeft-6, y+4, formatMillis(maxMs*float64(i)/float64(gridLines))))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf(`<text x="16" y="%d" text-anchor="middle" transform="rotate(-90,16,%d)" class="axis-label">mean duration (ms)</text>`, marginTop+plotHeight/2, marginTop+plotHeight/2))
	b.WriteString("\n")

	slot := float64(plotWidth) / float64(len(summaries))
	barWidth := slot * 0.7
	for i, s := range summaries {
		mean := s.Mean / 1000
		dev := s.StdDev / 1000
		cx := float64(marginLeft) + slot*(float64(i)+0.5)
		top := scaleY(mean)
		b.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" class="bar"><title>%s: %s</title></rect>`,
			cx-barWidth/2, top, barWidth, float64(marginTop+plotHeight)-top, xmlEscape(s.Operation), oplog.FormatMicros(s.Mean)))
		b.WriteString("\n")

		if dev > 0 {
			lo, hi := scaleY(math.Max(0, mean-dev)), scaleY(mean+dev)
			b.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" class="error-bar"/>`, cx, lo, cx, hi))
			b.WriteString("\n")
			for _, y := range []float64{lo, hi} {
				b.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" class="error-bar"/>`, cx-whiskerWidth/2, y, cx+whiskerWidth/2, y))
				b.WriteString("\n")
			}
		}

		ly := svgHeight - marginBottom + 14
		b.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" text-anchor="end" transform="rotate(-30,%.1f,%d)" class="tick-label">%s</text>`, cx, ly, cx, ly, xmlEscape(s.Operation)))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#ccc" stroke-width="1"/>`, marginLeft, marginTop, plotWidth, plotHeight))
	b.WriteString("\n")
	b.WriteString("</svg>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func formatMillis(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.1fk", ms/1000)
	}
	if ms == math.Trunc(ms) {
		return fmt.Sprintf("%.0f", ms)
	}
	return fmt.Sprintf("%.1f", ms)
}

func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
