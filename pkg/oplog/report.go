// Tabular report of operation summaries
package oplog

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// FormatMicros renders a microsecond duration as "%.2f ms" from 1000 µs up,
// otherwise as "%.2f µs".
func FormatMicros(us float64) string {
	if us >= 1000 {
		return fmt.Sprintf("%.2f ms", us/1000)
	}
	return fmt.Sprintf("%.2f µs", us)
}

// WriteReport writes summaries as a table in the order given.
func WriteReport(w io.Writer, summaries []Summary) error {
	tw := table.NewWriter()
	tw.SetTitle("Operation statistics (ordered by mean duration)")
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Operation", "Mean", "Std dev", "P90", "Count"})
	for _, s := range summaries {
		tw.AppendRow(table.Row{
			s.Operation,
			FormatMicros(s.Mean),
			FormatMicros(s.StdDev),
			FormatMicros(s.P90),
			s.Count,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	_, err := fmt.Fprintln(w, tw.Render())
	return err
}
