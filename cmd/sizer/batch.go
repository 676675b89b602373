package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/container-make/sizer/pkg/batch"
	"github.com/container-make/sizer/pkg/docker"
	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/preset"
	"github.com/container-make/sizer/pkg/progress"
	"github.com/container-make/sizer/pkg/report"
)

var (
	batchDuration int
	batchParallel int
	batchCategory string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Profile every preset image and print a comparison",
	Long: `Profile each image from the preset table (plus any user entries from
~/.sizer/images.json) and print a side-by-side comparison of the
recommendations.

EXAMPLES
  sizer batch
  sizer batch --duration 20 --parallel 2
  sizer batch --category "Databases"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := docker.NewSource()
		if err != nil {
			return err
		}
		defer source.Close()

		images, err := preset.Load()
		if err != nil {
			return err
		}
		if batchCategory != "" {
			filtered := images[:0]
			for _, img := range images {
				if img.Category == batchCategory {
					filtered = append(filtered, img)
				}
			}
			images = filtered
		}
		if len(images) == 0 {
			return fmt.Errorf("no images to profile")
		}

		fmt.Printf("Profiling %d images, %ds each...\n", len(images), batchDuration)

		tracker := progress.NewTracker()
		done := make(chan struct{})
		go pollProgress(tracker, done)

		runner := batch.NewRunner(estimate.New(source), tracker)
		runner.Duration = time.Duration(batchDuration) * time.Second
		runner.Parallel = batchParallel

		results := runner.Run(signalContext(), images)
		close(done)

		fmt.Println()
		fmt.Println(report.RenderComparison(batch.Reports(results)))
		for _, res := range results {
			if res.Error != "" {
				fmt.Printf("  %s: %s\n", res.Image, res.Error)
			}
		}
		return nil
	},
}

// pollProgress prints coarse progress lines until done closes. It reads the
// same shared tracker the web server exposes.
func pollProgress(tracker *progress.Tracker, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last progress.State
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			state := tracker.Snapshot()
			if state == last || state.Status != progress.StatusRunning {
				continue
			}
			fmt.Printf("  [%d/%d] %s\n", state.Current, state.Total, state.CurrentImage)
			last = state
		}
	}
}

func init() {
	batchCmd.Flags().IntVarP(&batchDuration, "duration", "d", 20, "Observation window per image in seconds")
	batchCmd.Flags().IntVarP(&batchParallel, "parallel", "p", 1, "Number of images profiled at once")
	batchCmd.Flags().StringVar(&batchCategory, "category", "", "Only profile presets in this category")

	rootCmd.AddCommand(batchCmd)
}
