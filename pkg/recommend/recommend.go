// Package recommend maps observed usage statistics to a compute-capacity
// recommendation and matching instance types in the AWS, GCP, and Azure
// catalogs. Everything here is a pure function of its input.
package recommend

import (
	"math"

	"github.com/container-make/sizer/pkg/stats"
)

// Target utilization and headroom constants. Peak CPU is sized against 80%
// of one vCPU per unit, and recommended RAM carries 50% headroom over the
// observed peak.
const (
	targetCPUPercent = 80.0
	memoryHeadroom   = 1.5
	mbPerGB          = 1024.0
)

// Provider identifies a cloud catalog.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderGCP   Provider = "gcp"
	ProviderAzure Provider = "azure"
)

// Providers lists the supported catalogs in display order.
var Providers = []Provider{ProviderAWS, ProviderGCP, ProviderAzure}

// Recommendation is the capacity tier derived from a usage summary.
type Recommendation struct {
	VCPU  int     `json:"vcpu"`
	RAMGB float64 `json:"ram_gb"`

	// Instances maps each provider to the matching instance type.
	Instances map[Provider]string `json:"instances"`
}

// tier is one row of the instance mapping table. A zero MaxRAMGB means the
// row matches any memory size; a zero VCPU means any core count.
type tier struct {
	VCPU     int
	MaxRAMGB float64
	AWS      string
	GCP      string
	Azure    string

	// Indicative hourly rate for the AWS row, informational only.
	HourlyRate float64
}

// tierTable is an ordered range table; the first matching row wins, so row
// order encodes priority and must not be reordered.
var tierTable = []tier{
	{VCPU: 1, MaxRAMGB: 1, AWS: "t3.micro", GCP: "e2-micro", Azure: "B1s", HourlyRate: 0.0104},
	{VCPU: 1, MaxRAMGB: 2, AWS: "t3.small", GCP: "e2-small", Azure: "B1ms", HourlyRate: 0.0208},
	{VCPU: 2, AWS: "t3.medium", GCP: "e2-medium", Azure: "B2s", HourlyRate: 0.0416},
	{AWS: "t3.large", GCP: "e2-standard-4", Azure: "B2ms", HourlyRate: 0.0832},
}

func (t tier) matches(vcpu int, ramGB float64) bool {
	if t.VCPU != 0 && vcpu != t.VCPU {
		return false
	}
	if t.MaxRAMGB != 0 && ramGB > t.MaxRAMGB {
		return false
	}
	return true
}

// VCPUs returns the recommended core count for a peak CPU percentage.
// Rounding is math.Round, half away from zero: a 40% peak sizes to one core,
// a 120% peak to two. Always at least 1.
func VCPUs(cpuPeak float64) int {
	n := int(math.Round(cpuPeak / targetCPUPercent))
	if n < 1 {
		return 1
	}
	return n
}

// RAMGB returns the recommended memory size in GB for a peak memory reading
// in MB, rounded to two decimal places.
func RAMGB(memPeakMB float64) float64 {
	return math.Round(memPeakMB*memoryHeadroom/mbPerGB*100) / 100
}

// FromSummary converts a usage summary into a recommendation.
func FromSummary(sum stats.Summary) Recommendation {
	vcpu := VCPUs(sum.CPUPeak)
	ram := RAMGB(sum.MemPeakMB)

	rec := Recommendation{
		VCPU:      vcpu,
		RAMGB:     ram,
		Instances: make(map[Provider]string, len(Providers)),
	}

	for _, row := range tierTable {
		if row.matches(vcpu, ram) {
			rec.Instances[ProviderAWS] = row.AWS
			rec.Instances[ProviderGCP] = row.GCP
			rec.Instances[ProviderAzure] = row.Azure
			break
		}
	}

	return rec
}

// InstancePricing describes one catalog entry, exposed so callers can render
// the full mapping table.
type InstancePricing struct {
	VCPU       int     `json:"vcpu"`
	MaxRAMGB   float64 `json:"max_ram_gb,omitempty"`
	AWS        string  `json:"aws"`
	GCP        string  `json:"gcp"`
	Azure      string  `json:"azure"`
	HourlyRate float64 `json:"hourly_rate"`
}

// Catalog returns the instance mapping table in priority order.
func Catalog() []InstancePricing {
	out := make([]InstancePricing, 0, len(tierTable))
	for _, row := range tierTable {
		out = append(out, InstancePricing{
			VCPU:       row.VCPU,
			MaxRAMGB:   row.MaxRAMGB,
			AWS:        row.AWS,
			GCP:        row.GCP,
			Azure:      row.Azure,
			HourlyRate: row.HourlyRate,
		})
	}
	return out
}
