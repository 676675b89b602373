package docker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// pullProgress represents a Docker pull progress message
type pullProgress struct {
	Status         string `json:"status"`
	ID             string `json:"id"`
	Progress       string `json:"progress"`
	ProgressDetail struct {
		Current int64 `json:"current"`
		Total   int64 `json:"total"`
	} `json:"progressDetail"`
}

// displayPullProgress parses Docker pull output and displays clean progress
// instead of the raw JSON event stream.
func displayPullProgress(reader io.Reader) {
	scanner := bufio.NewScanner(reader)
	var lastLine string

	for scanner.Scan() {
		var p pullProgress
		if err := json.Unmarshal(scanner.Bytes(), &p); err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(p.Status, "Pulling from"):
			fmt.Printf("  %s\n", p.Status)
		case strings.HasPrefix(p.Status, "Digest:"):
			fmt.Printf("\r\033[K  %s\n", p.Status)
		case strings.HasPrefix(p.Status, "Status:"):
			fmt.Printf("  %s\n", p.Status)
		case p.Status == "Downloading" && p.ProgressDetail.Total > 0:
			pct := float64(p.ProgressDetail.Current) / float64(p.ProgressDetail.Total) * 100
			line := fmt.Sprintf("  layer %s: %.0f%%", p.ID, pct)
			if line != lastLine {
				fmt.Printf("\r\033[K%s", line)
				lastLine = line
			}
		case p.Status == "Pull complete":
			fmt.Printf("\r\033[K  layer %s: done\n", p.ID)
		}
	}
}
