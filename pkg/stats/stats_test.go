package stats

import (
	"errors"
	"math"
	"testing"
	"time"
)

func snap(cpu, system uint64, cpus int, mem uint64) Snapshot {
	return Snapshot{
		Timestamp:      time.Now(),
		CPUTotal:       cpu,
		SystemCPUTotal: system,
		OnlineCPUs:     cpus,
		MemoryUsage:    mem,
	}
}

func TestCPUPercent(t *testing.T) {
	tests := []struct {
		name     string
		prev     Snapshot
		cur      Snapshot
		expected float64
	}{
		{
			name:     "half of one core",
			prev:     snap(0, 0, 1, 0),
			cur:      snap(500_000_000, 1_000_000_000, 1, 0),
			expected: 50.0,
		},
		{
			name:     "two cores fully busy",
			prev:     snap(1_000_000_000, 2_000_000_000, 2, 0),
			cur:      snap(3_000_000_000, 3_000_000_000, 2, 0),
			expected: 400.0,
		},
		{
			name:     "idle container",
			prev:     snap(100, 1_000_000_000, 4, 0),
			cur:      snap(100, 2_000_000_000, 4, 0),
			expected: 0.0,
		},
		{
			name:     "zero system delta",
			prev:     snap(100, 1_000_000_000, 4, 0),
			cur:      snap(200, 1_000_000_000, 4, 0),
			expected: 0.0,
		},
		{
			name:     "system counter went backwards",
			prev:     snap(100, 2_000_000_000, 4, 0),
			cur:      snap(200, 1_000_000_000, 4, 0),
			expected: 0.0,
		},
		{
			name:     "container counter reset",
			prev:     snap(5_000_000_000, 1_000_000_000, 4, 0),
			cur:      snap(100, 2_000_000_000, 4, 0),
			expected: 0.0,
		},
		{
			name:     "zero online cpus falls back to one",
			prev:     snap(0, 0, 0, 0),
			cur:      snap(500_000_000, 1_000_000_000, 0, 0),
			expected: 50.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CPUPercent(tt.prev, tt.cur)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CPUPercent() = %v, expected %v", got, tt.expected)
			}
			if got < 0 {
				t.Errorf("CPUPercent() returned negative value %v", got)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("CPUPercent() returned non-finite value %v", got)
			}
		})
	}
}

func TestCPUPercent_IdenticalSnapshots(t *testing.T) {
	// No CPU and no system time consumed between polls: still a valid tick,
	// reported as 0, never an error.
	s := snap(1_000_000, 2_000_000, 2, 0)
	if got := CPUPercent(s, s); got != 0 {
		t.Errorf("CPUPercent(identical) = %v, expected 0", got)
	}
}

func TestMemoryMB(t *testing.T) {
	s := snap(0, 0, 1, 512*1024*1024)
	if got := MemoryMB(s); got != 512.0 {
		t.Errorf("MemoryMB() = %v, expected 512", got)
	}
}

func TestSummarize(t *testing.T) {
	series := &Series{}
	series.Append(Point{CPUPercent: 10, MemoryMB: 100})
	series.Append(Point{CPUPercent: 30, MemoryMB: 300})
	series.Append(Point{CPUPercent: 20, MemoryMB: 200})

	sum, err := Summarize(series)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if sum.CPUAvg != 20 {
		t.Errorf("CPUAvg = %v, expected 20", sum.CPUAvg)
	}
	if sum.CPUPeak != 30 {
		t.Errorf("CPUPeak = %v, expected 30", sum.CPUPeak)
	}
	if sum.MemAvgMB != 200 {
		t.Errorf("MemAvgMB = %v, expected 200", sum.MemAvgMB)
	}
	if sum.MemPeakMB != 300 {
		t.Errorf("MemPeakMB = %v, expected 300", sum.MemPeakMB)
	}
	if sum.Samples != 3 {
		t.Errorf("Samples = %d, expected 3", sum.Samples)
	}
}

func TestSummarize_PeakNeverBelowAverage(t *testing.T) {
	series := &Series{}
	for i := 0; i < 50; i++ {
		series.Append(Point{
			CPUPercent: float64((i * 37) % 101),
			MemoryMB:   float64((i * 53) % 997),
		})
	}

	sum, err := Summarize(series)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if sum.CPUPeak < sum.CPUAvg {
		t.Errorf("CPUPeak %v < CPUAvg %v", sum.CPUPeak, sum.CPUAvg)
	}
	if sum.MemPeakMB < sum.MemAvgMB {
		t.Errorf("MemPeakMB %v < MemAvgMB %v", sum.MemPeakMB, sum.MemAvgMB)
	}
	if sum.CPUAvg < 0 || sum.MemAvgMB < 0 {
		t.Error("averages must be non-negative")
	}
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(&Series{})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}

	_, err = Summarize(nil)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData for nil series, got %v", err)
	}
}

func TestSummarize_SingleZeroSample(t *testing.T) {
	// A genuine all-zero sample is a legitimate idle measurement, distinct
	// from an empty series.
	series := &Series{}
	series.Append(Point{CPUPercent: 0, MemoryMB: 0})

	sum, err := Summarize(series)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.Samples != 1 {
		t.Errorf("Samples = %d, expected 1", sum.Samples)
	}
}
