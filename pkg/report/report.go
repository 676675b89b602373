// Package report writes estimation results to disk and renders them for the
// terminal.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/recommend"
)

// DefaultPath is where a single-image run saves its artifact.
const DefaultPath = "resource_report.json"

// Styles used for terminal output.
var (
	colorPrimary   = lipgloss.Color("#7D56F4")
	colorSecondary = lipgloss.Color("#04B575")
	colorWarning   = lipgloss.Color("#FFC857")
	colorSubtle    = lipgloss.Color("#6B6B6B")

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleValue = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorSubtle)

	styleWarn = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2)
)

// Write saves the report as indented JSON at path (DefaultPath when empty).
func Write(r *estimate.Report, path string) error {
	if path == "" {
		path = DefaultPath
	}

	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Render returns the terminal summary of one report.
func Render(r *estimate.Report) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Resource Summary") + "\n")
	b.WriteString(fmt.Sprintf("%s %s\n", styleLabel.Render("Image:"), r.Image))
	b.WriteString(fmt.Sprintf("%s %s\n", styleLabel.Render("Average CPU:"), styleValue.Render(fmt.Sprintf("%.2f%%", r.CPUAvg))))
	b.WriteString(fmt.Sprintf("%s %s\n", styleLabel.Render("Peak CPU:"), styleValue.Render(fmt.Sprintf("%.2f%%", r.CPUPeak))))
	b.WriteString(fmt.Sprintf("%s %s\n", styleLabel.Render("Average Memory:"), styleValue.Render(fmt.Sprintf("%.2f MB", r.MemAvgMB))))
	b.WriteString(fmt.Sprintf("%s %s\n", styleLabel.Render("Peak Memory:"), styleValue.Render(fmt.Sprintf("%.2f MB", r.MemPeakMB))))
	b.WriteString(fmt.Sprintf("%s %d\n", styleLabel.Render("Samples:"), r.Samples))

	if r.EarlyExit {
		b.WriteString(styleWarn.Render("Container exited before the window elapsed; statistics cover the partial run.") + "\n")
	}

	b.WriteString("\n" + styleTitle.Render("Cloud Estimate") + "\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		styleLabel.Render("Suggested:"),
		styleValue.Render(fmt.Sprintf("%d vCPU, %.2f GB RAM", r.Recommendation.VCPU, r.Recommendation.RAMGB))))

	b.WriteString(fmt.Sprintf("%s AWS %s / GCP %s / Azure %s\n",
		styleLabel.Render("Instances:"),
		r.Instances[recommend.ProviderAWS],
		r.Instances[recommend.ProviderGCP],
		r.Instances[recommend.ProviderAzure]))

	return styleBox.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderComparison returns a compact table of multiple reports, one line per
// image, used by batch runs.
func RenderComparison(reports []*estimate.Report) string {
	if len(reports) == 0 {
		return styleWarn.Render("No results collected.")
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("Batch Comparison") + "\n")
	b.WriteString(fmt.Sprintf("%-24s %10s %10s %12s %8s %-14s\n",
		"IMAGE", "CPU AVG", "CPU PEAK", "MEM PEAK", "vCPU", "AWS"))

	for _, r := range reports {
		name := r.Image
		if len(name) > 23 {
			name = name[:20] + "..."
		}
		line := fmt.Sprintf("%-24s %9.2f%% %9.2f%% %9.2f MB %8d %-14s",
			name, r.CPUAvg, r.CPUPeak, r.MemPeakMB,
			r.Recommendation.VCPU, r.Instances[recommend.ProviderAWS])
		if r.EarlyExit {
			line += " " + styleWarn.Render("(early exit)")
		}
		b.WriteString(line + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
