// Package sampler measures the Waydroid process tree's CPU and memory
// footprint plus the on-disk size of the runtime data directory. Everything
// here is best effort: a process that vanished mid-sample or an unreadable
// path degrades to zero, never to an error.
package sampler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/waybridge/internal/config"
)

// runtimeToken identifies Waydroid processes by substring match against
// comm and cmdline.
const runtimeToken = "waydroid"

const (
	bytesPerMB = 1 << 20
	bytesPerGB = 1 << 30
)

// Usage is one resource snapshot. CPUPercent is percent of total machine
// CPU capacity (0..100), RAMUsedMB resident memory in megabytes,
// StorageUsedGB the data directory footprint in gigabytes.
type Usage struct {
	CPUPercent    float64
	RAMUsedMB     float64
	StorageUsedGB float64
}

// Sampler takes resource snapshots of the runtime.
type Sampler struct {
	procRoot string
	token    string
	dataDir  string
	window   time.Duration
	logger   *zap.Logger
}

// New creates a sampler reading the live /proc tree.
func New(cfg *config.Config, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{
		procRoot: "/proc",
		token:    runtimeToken,
		dataDir:  cfg.DataDir,
		window:   cfg.CPUSampleWindow,
		logger:   logger,
	}
}

// Sample measures CPU over one shared window across all matched processes,
// sums their resident memory, and sizes the data directory. Zero matched
// processes yields zero CPU and RAM; a missing data directory yields zero
// storage.
func (s *Sampler) Sample(ctx context.Context) Usage {
	pids := matchedPIDs(s.procRoot, s.token)

	usage := Usage{
		CPUPercent:    s.cpuPercent(ctx, pids),
		RAMUsedMB:     ramUsedMB(s.procRoot, pids),
		StorageUsedGB: float64(dirSizeBytes(s.dataDir)) / bytesPerGB,
	}

	s.logger.Debug("resource sample",
		zap.Int("processes", len(pids)),
		zap.Float64("cpu_percent", usage.CPUPercent),
		zap.Float64("ram_mb", usage.RAMUsedMB),
		zap.Float64("storage_gb", usage.StorageUsedGB),
	)

	return usage
}

// cpuPercent reads every matched process's jiffy counter and the machine
// total at two instants around one shared window, so relative timing stays
// comparable across processes no matter how many matched.
func (s *Sampler) cpuPercent(ctx context.Context, pids []int) float64 {
	if len(pids) == 0 {
		return 0
	}

	totalBefore, ok := readCPUTotal(s.procRoot)
	if !ok {
		return 0
	}
	before := make(map[int]uint64, len(pids))
	for _, pid := range pids {
		if jiffies, ok := readProcJiffies(s.procRoot, pid); ok {
			before[pid] = jiffies
		}
	}

	select {
	case <-time.After(s.window):
	case <-ctx.Done():
		return 0
	}

	totalAfter, ok := readCPUTotal(s.procRoot)
	if !ok {
		return 0
	}

	return cpuPercentFromCounters(before, totalBefore, totalAfter, func(pid int) (uint64, bool) {
		return readProcJiffies(s.procRoot, pid)
	})
}

// cpuPercentFromCounters combines per-process jiffy deltas against the
// machine-wide delta. The total delta already spans all CPUs, so the result
// is percent of whole-machine capacity.
func cpuPercentFromCounters(before map[int]uint64, totalBefore, totalAfter uint64, readAfter func(int) (uint64, bool)) float64 {
	if totalAfter <= totalBefore {
		return 0
	}

	var procDelta uint64
	for pid, startJiffies := range before {
		endJiffies, ok := readAfter(pid)
		if !ok || endJiffies < startJiffies {
			// Process exited or PID was recycled during the window.
			continue
		}
		procDelta += endJiffies - startJiffies
	}

	return float64(procDelta) / float64(totalAfter-totalBefore) * 100
}

func ramUsedMB(procRoot string, pids []int) float64 {
	var totalBytes uint64
	for _, pid := range pids {
		if rss, ok := readProcRSS(procRoot, pid); ok {
			totalBytes += rss
		}
	}
	return float64(totalBytes) / bytesPerMB
}
