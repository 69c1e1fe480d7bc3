// Package ui draws the dashboard: a header, rolling memory and CPU charts
// anchored at a fixed row, and the one-shot core topology.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/muesli/termenv"

	"github.com/Dicklesworthstone/pipemon/internal/model"
)

// AnchorRow is the terminal row the charts are redrawn from.
const AnchorRow = 3

// Dashboard renders to a terminal using ANSI cursor control.
type Dashboard struct {
	out    *termenv.Output
	charts model.ChartSet
	width  int
}

// NewDashboard returns a dashboard whose charts are width samples wide.
func NewDashboard(w io.Writer, charts model.ChartSet, width int) *Dashboard {
	return &Dashboard{out: termenv.NewOutput(w), charts: charts, width: width}
}

// Begin clears the screen and prints the run header.
func (d *Dashboard) Begin(samples int, tick time.Duration) {
	d.out.ClearScreen()
	d.out.MoveCursor(1, 1)
	fmt.Fprintf(d.out, "%s\n\n", labelStyle.Render(fmt.Sprintf(
		"Number of samples: %d, --every %d microSecs (%.3f secs)",
		samples, tick.Microseconds(), tick.Seconds())))
}

// Utilization redraws the enabled charts from the anchor row. totalGB scales
// the memory chart.
func (d *Dashboard) Utilization(memory, cpu []float64, totalGB float64) {
	d.out.MoveCursor(AnchorRow, 1)
	if d.charts.Memory && len(memory) > 0 {
		memoryChart(memory[len(memory)-1], totalGB, d.width).draw(d.out, memory)
		fmt.Fprintln(d.out)
	}
	if d.charts.CPU && len(cpu) > 0 {
		cpuChart(cpu[len(cpu)-1], d.width).draw(d.out, cpu)
		fmt.Fprintln(d.out)
	}
}

// Topology prints the core count, maximum frequency and one box per core.
func (d *Dashboard) Topology(t model.CoreTopology) {
	fmt.Fprintln(d.out, titleStyle.Render(fmt.Sprintf(
		"v Number of Cores: %d @ %.2f GHz", t.Cores, t.MaxFreqGHz)))
	if boxes := RenderCores(t.Cores); boxes != "" {
		fmt.Fprintln(d.out, boxes)
	}
}
