package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/recommend"
)

func sampleReport() *estimate.Report {
	return &estimate.Report{
		Image:       "nginx:latest",
		DurationSec: 30,
		CPUAvg:      1.92,
		CPUPeak:     3.91,
		MemAvgMB:    7.5,
		MemPeakMB:   8.01,
		Recommendation: estimate.Capacity{
			VCPU:  1,
			RAMGB: 0.01,
		},
		Instances: map[recommend.Provider]string{
			recommend.ProviderAWS:   "t3.micro",
			recommend.ProviderGCP:   "e2-micro",
			recommend.ProviderAzure: "B1s",
		},
		Samples: 29,
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resource_report.json")
	if err := Write(sampleReport(), path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report back: %v", err)
	}

	// The artifact schema is consumed by batch tooling; verify the JSON keys
	// round-trip intact.
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	for _, key := range []string{
		"image", "duration_sec", "cpu_avg", "cpu_peak",
		"mem_avg_mb", "mem_peak_mb", "recommendation", "instance_by_provider",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report is missing key %q", key)
		}
	}

	rec, ok := decoded["recommendation"].(map[string]interface{})
	if !ok {
		t.Fatal("recommendation is not an object")
	}
	if rec["vcpu"] != float64(1) {
		t.Errorf("vcpu = %v, expected 1", rec["vcpu"])
	}
	if rec["ram_gb"] != 0.01 {
		t.Errorf("ram_gb = %v, expected 0.01", rec["ram_gb"])
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleReport())

	for _, want := range []string{"nginx:latest", "3.91", "t3.micro", "e2-micro", "B1s", "1 vCPU"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered summary missing %q", want)
		}
	}
	if strings.Contains(out, "early") || strings.Contains(out, "partial") {
		t.Error("full run must not mention an early exit")
	}
}

func TestRender_EarlyExit(t *testing.T) {
	r := sampleReport()
	r.EarlyExit = true

	out := Render(r)
	if !strings.Contains(out, "partial") {
		t.Error("early-exit run should flag the partial window")
	}
}

func TestRenderComparison(t *testing.T) {
	a := sampleReport()
	b := sampleReport()
	b.Image = "redis:latest"
	b.EarlyExit = true

	out := RenderComparison([]*estimate.Report{a, b})
	if !strings.Contains(out, "nginx:latest") || !strings.Contains(out, "redis:latest") {
		t.Error("comparison missing image rows")
	}
	if !strings.Contains(out, "early exit") {
		t.Error("comparison should mark early exits")
	}

	if empty := RenderComparison(nil); empty == "" {
		t.Error("empty comparison should still render a message")
	}
}
