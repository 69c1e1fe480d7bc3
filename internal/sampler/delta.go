package sampler

import "github.com/Dicklesworthstone/pipemon/internal/model"

// UtilizationDelta keeps the two most recent CPU snapshots. After is never
// older than Before.
type UtilizationDelta struct {
	Before model.CPUSnapshot
	After  model.CPUSnapshot
}

// NewUtilizationDelta starts a window from two snapshots.
func NewUtilizationDelta(before, after model.CPUSnapshot) *UtilizationDelta {
	return &UtilizationDelta{Before: before, After: after}
}

// Slide moves After into Before and installs next as After.
func (d *UtilizationDelta) Slide(next model.CPUSnapshot) {
	d.Before = d.After
	d.After = next
}

// Percent is the busy share of the CPU time elapsed between the snapshots.
// A non-positive elapsed total yields 0; the result is kept within [0, 100]
// so counter anomalies never produce a sentinel-looking value.
func (d *UtilizationDelta) Percent() float64 {
	total := d.After.Total - d.Before.Total
	if total <= 0 {
		return 0
	}
	busy := d.After.Busy() - d.Before.Busy()
	if busy <= 0 {
		return 0
	}
	if busy >= total {
		return 100
	}
	return float64(busy) * 100 / float64(total)
}
