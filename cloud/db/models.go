package db

import (
	"time"

	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/recommend"
)

// EstimateRecord is one persisted estimation outcome. Failed runs are stored
// too, with Error set and the numeric fields zeroed.
type EstimateRecord struct {
	ID    string `gorm:"primaryKey;size:36" json:"id"`
	Image string `gorm:"size:255;index" json:"image"`

	DurationSec int     `json:"duration_sec"`
	CPUAvg      float64 `json:"cpu_avg"`
	CPUPeak     float64 `json:"cpu_peak"`
	MemAvgMB    float64 `json:"mem_avg_mb"`
	MemPeakMB   float64 `json:"mem_peak_mb"`

	VCPU          int     `json:"vcpu"`
	RAMGB         float64 `json:"ram_gb"`
	AWSInstance   string  `gorm:"size:50" json:"aws_instance"`
	GCPInstance   string  `gorm:"size:50" json:"gcp_instance"`
	AzureInstance string  `gorm:"size:50" json:"azure_instance"`

	EarlyExit bool   `json:"early_exit"`
	Samples   int    `json:"samples"`
	Error     string `gorm:"size:500" json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FromReport converts a successful report into a record.
func FromReport(id string, r *estimate.Report) *EstimateRecord {
	return &EstimateRecord{
		ID:            id,
		Image:         r.Image,
		DurationSec:   r.DurationSec,
		CPUAvg:        r.CPUAvg,
		CPUPeak:       r.CPUPeak,
		MemAvgMB:      r.MemAvgMB,
		MemPeakMB:     r.MemPeakMB,
		VCPU:          r.Recommendation.VCPU,
		RAMGB:         r.Recommendation.RAMGB,
		AWSInstance:   r.Instances[recommend.ProviderAWS],
		GCPInstance:   r.Instances[recommend.ProviderGCP],
		AzureInstance: r.Instances[recommend.ProviderAzure],
		EarlyExit:     r.EarlyExit,
		Samples:       r.Samples,
	}
}

// FromFailure records a run that produced no report.
func FromFailure(id, image string, err error) *EstimateRecord {
	return &EstimateRecord{
		ID:    id,
		Image: image,
		Error: err.Error(),
	}
}
