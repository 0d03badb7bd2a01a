package main

import (
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// column describes one table column: its header and whether its cells hold
// numeric values (which align right).
type column struct {
	title   string
	numeric bool
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}

	return tw.Render()
}

// checkCell renders a preflight outcome, coloured when stdout is a terminal.
func checkCell(passed bool) string {
	if passed {
		return colorize(text.FgGreen, "ok")
	}
	return colorize(text.FgHiRed, "FAIL")
}

func colorize(c text.Color, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return s
	}
	return c.Sprint(s)
}

// speedCell renders a reconciled speed factor, or a dash for segments the
// reconciler has not touched.
func speedCell(speed *float64) string {
	if speed == nil {
		return "-"
	}
	return strconv.FormatFloat(*speed, 'f', 2, 64) + "x"
}

// durationCell renders a final clip duration in seconds.
func durationCell(seconds *float64) string {
	if seconds == nil {
		return "-"
	}
	return strconv.FormatFloat(*seconds, 'f', 3, 64) + "s"
}
