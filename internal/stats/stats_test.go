package stats

import (
	"math"
	"testing"
	"time"

	"github.com/blackwell-systems/waybridge/internal/store"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Samples != 0 {
		t.Errorf("Samples = %d, want 0", s.Samples)
	}
	if s.AvgCPU != 0 || s.PeakCPU != 0 || s.AvgRAM != 0 || s.PeakRAM != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
	if s.Span != 0 {
		t.Errorf("Span = %v, want 0", s.Span)
	}
}

func TestSummarize(t *testing.T) {
	// Newest first, matching the store's query order.
	samples := []*store.ResourceSample{
		{Timestamp: 1300, CPUUsage: 30, RAMUsage: 900, StorageUsage: 8.5},
		{Timestamp: 1290, CPUUsage: 80, RAMUsage: 1200, StorageUsage: 8.4},
		{Timestamp: 1280, CPUUsage: 10, RAMUsage: 600, StorageUsage: 8.4},
	}

	s := Summarize(samples)

	if s.Samples != 3 {
		t.Errorf("Samples = %d, want 3", s.Samples)
	}
	if !almostEqual(s.AvgCPU, 40) {
		t.Errorf("AvgCPU = %f, want 40", s.AvgCPU)
	}
	if !almostEqual(s.PeakCPU, 80) {
		t.Errorf("PeakCPU = %f, want 80", s.PeakCPU)
	}
	if !almostEqual(s.AvgRAM, 900) {
		t.Errorf("AvgRAM = %f, want 900", s.AvgRAM)
	}
	if !almostEqual(s.PeakRAM, 1200) {
		t.Errorf("PeakRAM = %f, want 1200", s.PeakRAM)
	}
	if !almostEqual(s.LatestStorage, 8.5) {
		t.Errorf("LatestStorage = %f, want 8.5 (newest sample)", s.LatestStorage)
	}
	if s.Span != 20*time.Second {
		t.Errorf("Span = %v, want 20s", s.Span)
	}
}

func TestSummarizeSingleSample(t *testing.T) {
	samples := []*store.ResourceSample{
		{Timestamp: 500, CPUUsage: 12.5, RAMUsage: 256, StorageUsage: 4},
	}

	s := Summarize(samples)

	if s.Samples != 1 {
		t.Errorf("Samples = %d, want 1", s.Samples)
	}
	if !almostEqual(s.AvgCPU, 12.5) || !almostEqual(s.PeakCPU, 12.5) {
		t.Errorf("single sample should be its own average and peak, got %+v", s)
	}
	if s.Span != 0 {
		t.Errorf("Span = %v, want 0 for a single sample", s.Span)
	}
}
