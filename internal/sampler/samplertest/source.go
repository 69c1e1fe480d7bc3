// Package samplertest provides a scripted sampler.Source for tests.
package samplertest

import (
	"fmt"
	"sync"

	"github.com/Dicklesworthstone/pipemon/internal/model"
)

// Memory is one scripted memory read.
type Memory struct {
	TotalGB float64
	FreeGB  float64
}

// Source replays scripted readings. When a script runs out, the last entry
// repeats. FailCPUAt and FailMemoryAt are 1-based call numbers that return
// an error instead of a reading (0 never fails).
type Source struct {
	mu sync.Mutex

	CPU     []model.CPUSnapshot
	Mem     []Memory
	Cores   int
	FreqGHz float64

	FailCPUAt    int
	FailMemoryAt int
	FailCores    bool
	FailFreq     bool

	cpuCalls int
	memCalls int
}

// ForPercents builds a CPU script whose consecutive deltas yield the given
// utilization percentages. The first snapshot is the pre-loop baseline.
func ForPercents(percents ...float64) []model.CPUSnapshot {
	const step = 1000
	snaps := []model.CPUSnapshot{{Total: 0, Idle: 0}}
	var total, busy int64
	for _, p := range percents {
		total += step
		busy += int64(p * step / 100)
		snaps = append(snaps, model.CPUSnapshot{Total: total, Idle: total - busy})
	}
	return snaps
}

func (s *Source) CPUSnapshot() (model.CPUSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cpuCalls++
	if s.cpuCalls == s.FailCPUAt {
		return model.CPUSnapshot{}, fmt.Errorf("scripted cpu failure on call %d", s.cpuCalls)
	}
	if len(s.CPU) == 0 {
		return model.CPUSnapshot{}, nil
	}
	return s.CPU[min(s.cpuCalls, len(s.CPU))-1], nil
}

func (s *Source) Memory() (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memCalls++
	if s.memCalls == s.FailMemoryAt {
		return 0, 0, fmt.Errorf("scripted memory failure on call %d", s.memCalls)
	}
	if len(s.Mem) == 0 {
		return 0, 0, nil
	}
	m := s.Mem[min(s.memCalls, len(s.Mem))-1]
	return m.TotalGB, m.FreeGB, nil
}

func (s *Source) CoreCount() (int, error) {
	if s.FailCores {
		return 0, fmt.Errorf("scripted core count failure")
	}
	return s.Cores, nil
}

func (s *Source) MaxFrequencyGHz() (float64, error) {
	if s.FailFreq {
		return 0, fmt.Errorf("scripted frequency failure")
	}
	return s.FreqGHz, nil
}
