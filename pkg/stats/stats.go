// Package stats holds the sampling data model for a profiling run and the
// numeric conversions applied to raw Docker counters: delta-based CPU
// percentage and series aggregation into summary statistics.
package stats

import (
	"errors"
	"time"
)

// ErrNoData is returned when a series holds zero valid samples. A zero-usage
// summary is indistinguishable from a failed measurement, so an empty series
// is never summarized into zeros.
var ErrNoData = errors.New("no samples collected")

// Snapshot is one point-in-time reading of a container's cumulative counters.
// Consumed in consecutive pairs; a single snapshot carries no rate information.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	// Cumulative CPU time consumed by the container, in nanoseconds.
	CPUTotal uint64 `json:"cpu_total"`

	// Cumulative CPU time consumed by the whole host, in nanoseconds.
	SystemCPUTotal uint64 `json:"system_cpu_total"`

	OnlineCPUs  int    `json:"online_cpus"`
	MemoryUsage uint64 `json:"memory_usage"` // bytes
}

// Window configures one profiling run.
type Window struct {
	Duration time.Duration
	Interval time.Duration
}

// DefaultInterval is the sampling cadence used when a Window leaves
// Interval unset.
const DefaultInterval = time.Second

// Point is one valid sampling interval: CPU utilization across that interval
// and the memory usage observed at its end.
type Point struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemoryMB   float64 `json:"memory_mb"`
}

// Series is the ordered result of one sampling run. The first snapshot of a
// run only seeds the delta baseline and contributes no Point.
type Series struct {
	Points []Point `json:"points"`

	// EarlyExit is set when the container left the running state before the
	// window elapsed. The points collected up to that moment are retained.
	EarlyExit bool `json:"early_exit"`
}

// Append adds one point to the series.
func (s *Series) Append(p Point) {
	s.Points = append(s.Points, p)
}

// Len returns the number of valid samples.
func (s *Series) Len() int { return len(s.Points) }

// Summary contains the aggregate statistics of a finalized series.
type Summary struct {
	CPUAvg    float64 `json:"cpu_avg"`
	CPUPeak   float64 `json:"cpu_peak"`
	MemAvgMB  float64 `json:"mem_avg_mb"`
	MemPeakMB float64 `json:"mem_peak_mb"`
	Samples   int     `json:"samples"`
}

// CPUPercent converts two consecutive snapshots into an instantaneous CPU
// utilization percentage. The calculation is delta-based: a ratio of
// cumulative totals would drift toward a meaningless constant on any
// long-running container, while the delta between two readings reflects
// utilization across that interval.
//
// A non-positive system delta or a negative container delta is a measurement
// artifact (stats race, counter reset), not a usage signal, and yields 0.
func CPUPercent(prev, cur Snapshot) float64 {
	if cur.SystemCPUTotal <= prev.SystemCPUTotal {
		return 0
	}
	if cur.CPUTotal < prev.CPUTotal {
		return 0
	}

	cpuDelta := float64(cur.CPUTotal - prev.CPUTotal)
	systemDelta := float64(cur.SystemCPUTotal - prev.SystemCPUTotal)

	cpus := cur.OnlineCPUs
	if cpus <= 0 {
		cpus = 1
	}

	return (cpuDelta / systemDelta) * float64(cpus) * 100.0
}

// MemoryMB converts a snapshot's memory usage to mebibytes.
func MemoryMB(snap Snapshot) float64 {
	return float64(snap.MemoryUsage) / (1024 * 1024)
}

// Summarize reduces a finalized series to its summary statistics. An empty
// series returns ErrNoData.
func Summarize(s *Series) (Summary, error) {
	if s == nil || len(s.Points) == 0 {
		return Summary{}, ErrNoData
	}

	var sum Summary
	var cpuTotal, memTotal float64

	for _, p := range s.Points {
		cpuTotal += p.CPUPercent
		memTotal += p.MemoryMB
		if p.CPUPercent > sum.CPUPeak {
			sum.CPUPeak = p.CPUPercent
		}
		if p.MemoryMB > sum.MemPeakMB {
			sum.MemPeakMB = p.MemoryMB
		}
	}

	n := float64(len(s.Points))
	sum.CPUAvg = cpuTotal / n
	sum.MemAvgMB = memTotal / n
	sum.Samples = len(s.Points)

	return sum, nil
}
