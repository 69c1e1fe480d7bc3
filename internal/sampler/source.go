package sampler

import (
	"math"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Dicklesworthstone/pipemon/internal/errors"
	"github.com/Dicklesworthstone/pipemon/internal/model"
)

// clockTicks converts gopsutil's CPU seconds back to USER_HZ ticks.
const clockTicks = 100

const bytesPerGB = 1024 * 1024 * 1024

// Source performs single-shot OS metric reads. Each call either returns a
// value or a failure; producers treat any failure as fatal to themselves.
type Source interface {
	CPUSnapshot() (model.CPUSnapshot, error)
	Memory() (totalGB, freeGB float64, err error)
	CoreCount() (int, error)
	MaxFrequencyGHz() (float64, error)
}

// Host reads metrics of the local machine through gopsutil.
type Host struct{}

// NewHost returns a Source backed by the running host.
func NewHost() *Host { return &Host{} }

// CPUSnapshot sums the aggregate CPU time classes into clock ticks.
func (h *Host) CPUSnapshot() (model.CPUSnapshot, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return model.CPUSnapshot{}, errors.WrapWithCode(err, errors.ErrSample,
			"Cannot read CPU times", "Check that /proc/stat is readable")
	}
	if len(times) == 0 {
		return model.CPUSnapshot{}, errors.New(errors.ErrSample,
			"No aggregate CPU times reported", "")
	}
	t := times[0]
	total := ticks(t.User) + ticks(t.Nice) + ticks(t.System) + ticks(t.Idle) +
		ticks(t.Iowait) + ticks(t.Irq) + ticks(t.Softirq)
	return model.CPUSnapshot{Total: total, Idle: ticks(t.Idle)}, nil
}

// Memory returns total and free RAM in GB.
func (h *Host) Memory() (float64, float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, errors.WrapWithCode(err, errors.ErrSample,
			"Cannot read memory statistics", "")
	}
	return float64(vm.Total) / bytesPerGB, float64(vm.Free) / bytesPerGB, nil
}

// CoreCount returns the number of physical cores.
func (h *Host) CoreCount() (int, error) {
	n, err := cpu.Counts(false)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrSample, "Cannot count CPU cores", "")
	}
	if n <= 0 {
		return 0, errors.New(errors.ErrSample, "Host reported no physical cores", "")
	}
	return n, nil
}

// MaxFrequencyGHz returns the first CPU's maximum frequency. On Linux
// gopsutil takes it from cpufreq's cpuinfo_max_freq when available.
func (h *Host) MaxFrequencyGHz() (float64, error) {
	infos, err := cpu.Info()
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrSample, "Cannot read CPU info", "")
	}
	if len(infos) == 0 || infos[0].Mhz <= 0 {
		return 0, errors.New(errors.ErrSample, "CPU maximum frequency is not available",
			"Check /sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq")
	}
	return infos[0].Mhz / 1000, nil
}

func ticks(seconds float64) int64 { return int64(math.Round(seconds * clockTicks)) }
