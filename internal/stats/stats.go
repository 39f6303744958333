// Package stats summarizes the rolling resource-usage history kept by the
// daemon's monitor loop.
package stats

import (
	"time"

	"github.com/blackwell-systems/waybridge/internal/store"
)

// Summary condenses a window of resource samples into the numbers the status
// command prints above the sample table.
type Summary struct {
	Samples int

	AvgCPU  float64
	PeakCPU float64

	AvgRAM  float64 // megabytes
	PeakRAM float64 // megabytes

	// LatestStorage is the newest storage reading in gigabytes. Storage only
	// grows with installs, so averaging it would be misleading.
	LatestStorage float64

	// Span is the time between the oldest and newest sample.
	Span time.Duration
}

// Summarize computes a Summary over the given samples. Samples arrive newest
// first, the way the store returns them; an empty slice yields a zero Summary.
func Summarize(samples []*store.ResourceSample) Summary {
	var s Summary
	if len(samples) == 0 {
		return s
	}

	s.Samples = len(samples)
	s.LatestStorage = samples[0].StorageUsage

	var cpuTotal, ramTotal float64
	for _, sample := range samples {
		cpuTotal += sample.CPUUsage
		ramTotal += sample.RAMUsage
		if sample.CPUUsage > s.PeakCPU {
			s.PeakCPU = sample.CPUUsage
		}
		if sample.RAMUsage > s.PeakRAM {
			s.PeakRAM = sample.RAMUsage
		}
	}
	s.AvgCPU = cpuTotal / float64(len(samples))
	s.AvgRAM = ramTotal / float64(len(samples))

	newest := samples[0].Timestamp
	oldest := samples[len(samples)-1].Timestamp
	if newest > oldest {
		s.Span = time.Duration(newest-oldest) * time.Second
	}

	return s
}
