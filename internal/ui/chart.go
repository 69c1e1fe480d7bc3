package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Rows is the number of vertical buckets a chart is divided into.
const Rows = 12

// axisWidth is the width of the left label column, up to and including the
// space before the axis.
const axisWidth = 8

// Row maps a sample to its bucket in [0, Rows]. Bucket 0 is not drawn.
// A non-positive or NaN scale maps everything to 0.
func Row(sample, scale float64) int {
	if !(scale > 0) || !(sample > 0) {
		return 0
	}
	row := int(math.Ceil(sample / scale * Rows))
	if row > Rows {
		return Rows
	}
	return row
}

// chart describes one rolling chart: a title line, a labelled vertical axis,
// a horizontal axis Width+1 columns long, and one column per sample.
type chart struct {
	Title    string
	TopLabel string
	BotLabel string
	Marker   string
	Style    lipgloss.Style
	Scale    float64
	Width    int
}

// draw renders c with samples from the current cursor position. Markers are
// placed by moving the cursor up to their row and back down, so the chart
// is redrawn in full on every call.
func (c chart) draw(out *termenv.Output, samples []float64) {
	fmt.Fprintln(out, titleStyle.Render(c.Title))
	fmt.Fprintf(out, "%s| \n", subtleStyle.Render(c.TopLabel))
	for i := 0; i < Rows-1; i++ {
		out.CursorForward(axisWidth)
		fmt.Fprint(out, "|\n")
	}
	fmt.Fprint(out, subtleStyle.Render(c.BotLabel))
	fmt.Fprint(out, strings.Repeat("—", c.Width+1))
	out.CursorBack(c.Width)

	marker := c.Style.Render(c.Marker)
	for _, v := range samples {
		row := Row(v, c.Scale)
		if row == 0 {
			out.CursorForward(1)
			continue
		}
		out.CursorUp(row)
		fmt.Fprint(out, marker)
		out.CursorDown(row)
	}
	fmt.Fprintln(out)
}

func memoryChart(latest, totalGB float64, width int) chart {
	return chart{
		Title:    fmt.Sprintf("v Memory %5.2f GB", latest),
		TopLabel: fmt.Sprintf(" %3d GB ", int(math.Round(totalGB))),
		BotLabel: fmt.Sprintf(" %3d GB ", 0),
		Marker:   "#",
		Style:    memoryMark,
		Scale:    totalGB,
		Width:    width,
	}
}

func cpuChart(latest float64, width int) chart {
	return chart{
		Title:    fmt.Sprintf("v CPU %5.2f %%", latest),
		TopLabel: fmt.Sprintf("  %3d %% ", 100),
		BotLabel: fmt.Sprintf("  %3d %% ", 0),
		Marker:   ":",
		Style:    cpuMark,
		Scale:    100,
		Width:    width,
	}
}
