package model

// Sentinel marks a field that is not yet available or is invalid.
// Any negative value is treated the same way by readers.
const Sentinel = -1

// CPUSnapshot holds cumulative CPU time counters in clock ticks.
// Total is the sum of user, nice, system, idle, iowait, irq and softirq.
type CPUSnapshot struct {
	Total int64
	Idle  int64
}

// Busy is the non-idle share of Total.
func (s CPUSnapshot) Busy() int64 { return s.Total - s.Idle }

// MemorySample captures RAM usage in GB. UsedGB = TotalGB - free.
type MemorySample struct {
	TotalGB float64
	UsedGB  float64
}

// Valid reports whether both fields are non-negative.
func (m MemorySample) Valid() bool { return m.TotalGB >= 0 && m.UsedGB >= 0 }

// UtilizationRecord is the per-tick combination of CPU and memory samples.
// Fields of metrics that are not sampled carry Sentinel.
type UtilizationRecord struct {
	CPUPercent float64
	Memory     MemorySample
}

// PendingUtilization returns a record with every field set to Sentinel.
func PendingUtilization() UtilizationRecord {
	return UtilizationRecord{
		CPUPercent: Sentinel,
		Memory:     MemorySample{TotalGB: Sentinel, UsedGB: Sentinel},
	}
}

// CoreTopology describes the host's cores; produced once per run.
type CoreTopology struct {
	Cores      int
	MaxFreqGHz float64
}

// PendingTopology returns a topology with every field set to Sentinel.
func PendingTopology() CoreTopology {
	return CoreTopology{Cores: Sentinel, MaxFreqGHz: Sentinel}
}

// Valid reports whether both fields are non-negative.
func (c CoreTopology) Valid() bool { return c.Cores >= 0 && c.MaxFreqGHz >= 0 }

// ChartSet selects which charts a run draws.
type ChartSet struct {
	Memory bool `yaml:"memory"`
	CPU    bool `yaml:"cpu"`
	Cores  bool `yaml:"cores"`
}

// Any reports whether at least one chart is enabled.
func (c ChartSet) Any() bool { return c.Memory || c.CPU || c.Cores }

// Utilization reports whether the periodic memory/CPU stream is needed.
func (c ChartSet) Utilization() bool { return c.Memory || c.CPU }

// All returns a set with every chart enabled.
func All() ChartSet { return ChartSet{Memory: true, CPU: true, Cores: true} }
