package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingRecordsAreInvalid(t *testing.T) {
	rec := PendingUtilization()
	assert.Less(t, rec.CPUPercent, 0.0)
	assert.False(t, rec.Memory.Valid())
	assert.False(t, PendingTopology().Valid())
}

func TestCPUSnapshotBusy(t *testing.T) {
	assert.Equal(t, int64(30), CPUSnapshot{Total: 100, Idle: 70}.Busy())
}

func TestChartSet(t *testing.T) {
	tests := []struct {
		name        string
		set         ChartSet
		any         bool
		utilization bool
	}{
		{name: "none", set: ChartSet{}, any: false, utilization: false},
		{name: "cores only", set: ChartSet{Cores: true}, any: true, utilization: false},
		{name: "cpu only", set: ChartSet{CPU: true}, any: true, utilization: true},
		{name: "all", set: All(), any: true, utilization: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.any, tt.set.Any())
			assert.Equal(t, tt.utilization, tt.set.Utilization())
		})
	}
}
