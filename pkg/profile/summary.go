// Human-readable rendering of a dataset Report as text tables
package profile

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteSummary writes the airport, elevation, geography, runway, and surface
// tables for r.
func WriteSummary(w io.Writer, r *Report) error {
	p := message.NewPrinter(language.English)

	tables := []table.Writer{
		countsTable(p, r),
		numericTable(p, "Elevation (ft)", r.Elevation),
		boundsTable(p, r.Bounds),
		categoricalTable(p, "Runways per airport", "Runways", r.RunwaysPerAirport),
		numericTable(p, "Runway length (ft, Length > 0)", r.RunwayLength),
		numericTable(p, "Runway width (ft, Width > 0)", r.RunwayWidth),
		categoricalTable(p, "Runway surface", "Surface", r.Surface),
	}
	for _, tw := range tables {
		if _, err := fmt.Fprintf(w, "%s\n\n", tw.Render()); err != nil {
			return err
		}
	}
	return nil
}

func newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetTitle(title)
	tw.SetStyle(table.StyleLight)
	return tw
}

func countsTable(p *message.Printer, r *Report) table.Writer {
	tw := newTable("Dataset " + r.Source)
	tw.AppendRows([]table.Row{
		{"Airports", p.Sprintf("%d", r.Airports)},
		{"Runways", p.Sprintf("%d", r.Runways)},
		{"Average runways per airport", p.Sprintf("%.2f", r.AverageRunways)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tw
}

func numericTable(p *message.Printer, title string, n Numeric) table.Writer {
	tw := newTable(title)
	tw.AppendHeader(table.Row{"Statistic", "Value"})
	tw.AppendRow(table.Row{"Count", p.Sprintf("%d", n.Count)})
	tw.AppendRow(table.Row{"Min", p.Sprintf("%.0f", n.Min)})
	tw.AppendRow(table.Row{"Mean", p.Sprintf("%.0f", n.Mean)})
	for _, qv := range n.Ladder {
		tw.AppendRow(table.Row{"P" + qv.Label(), p.Sprintf("%.0f", qv.Value)})
	}
	tw.AppendRow(table.Row{"Max", p.Sprintf("%.0f", n.Max)})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tw
}

func boundsTable(p *message.Printer, b Bounds) table.Writer {
	tw := newTable("Geographic extent")
	tw.AppendHeader(table.Row{"Axis", "Min", "Max"})
	tw.AppendRow(table.Row{"Latitude", p.Sprintf("%.2f°", b.MinLatitude), p.Sprintf("%.2f°", b.MaxLatitude)})
	tw.AppendRow(table.Row{"Longitude", p.Sprintf("%.2f°", b.MinLongitude), p.Sprintf("%.2f°", b.MaxLongitude)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw
}

func categoricalTable(p *message.Printer, title, label string, c Categorical) table.Writer {
	tw := newTable(title)
	tw.AppendHeader(table.Row{label, "Count", "Percentage"})
	for _, f := range c.Frequencies {
		tw.AppendRow(table.Row{f.Label, p.Sprintf("%d", f.Count), p.Sprintf("%.2f%%", f.Percent)})
	}
	tw.AppendFooter(table.Row{"Total", p.Sprintf("%d", c.Total), ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return tw
}
