package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/container-make/sizer/pkg/docker"
	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/logger"
	"github.com/container-make/sizer/pkg/preset"
	"github.com/container-make/sizer/pkg/report"
)

// Version info - set by build flags
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "sizer",
	Short: "Profile a container's resource usage and size it for the cloud",
	Long: `sizer runs a container for a fixed observation window, samples its CPU and
memory consumption, and converts the observed peaks into a recommended
capacity tier with matching AWS, GCP, and Azure instance types.

QUICK START
  sizer estimate --image nginx:latest        Profile one image
  sizer batch                                Profile the built-in image set
  sizer images                               List the built-in image set
  sizer serve                                Run the web control plane

EXAMPLES
  # Profile nginx for one minute
  $ sizer estimate --image nginx:latest --duration 60

  # Profile redis with its server command and stop Docker afterwards
  $ sizer estimate --image redis:latest --command "redis-server" --stop-engine

  # Compare every preset image with a 20 second window each
  $ sizer batch --duration 20`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLevelFromString(logLevel)
	},
}

var (
	estimateImage      string
	estimateDuration   int
	estimateCommand    string
	estimateStopEngine bool
	estimateOutput     string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Profile a single image and print its recommendation",
	RunE: func(cmd *cobra.Command, args []string) error {
		if estimateImage == "" {
			return fmt.Errorf("--image is required")
		}
		if estimateDuration <= 0 {
			return fmt.Errorf("--duration must be positive")
		}

		source, err := docker.NewSource()
		if err != nil {
			return err
		}
		defer source.Close()

		images, err := preset.Load()
		if err != nil {
			return err
		}

		req := estimate.Request{
			Image:      estimateImage,
			Duration:   time.Duration(estimateDuration) * time.Second,
			Command:    estimateCommand,
			StopEngine: estimateStopEngine,
		}
		if img, ok := preset.Find(images, estimateImage); ok {
			req.PresetCommand = img.Command
			req.StartupDelay = img.StartupDelay
		}

		fmt.Printf("Profiling %s for %ds...\n", estimateImage, estimateDuration)

		rep, err := estimate.New(source).Run(signalContext(), req)
		if err != nil {
			return err
		}

		fmt.Println(report.Render(rep))

		if err := report.Write(rep, estimateOutput); err != nil {
			return err
		}
		path := estimateOutput
		if path == "" {
			path = report.DefaultPath
		}
		fmt.Printf("Report saved as %s\n", path)
		return nil
	},
}

// signalContext returns a context cancelled by SIGINT/SIGTERM so an
// interrupted run still tears its container down.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted, stopping container early...")
		cancel()
	}()
	return ctx
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	estimateCmd.Flags().StringVarP(&estimateImage, "image", "i", "", "Image to profile (e.g. nginx:latest)")
	estimateCmd.Flags().IntVarP(&estimateDuration, "duration", "d", 30, "Observation window in seconds")
	estimateCmd.Flags().StringVarP(&estimateCommand, "command", "c", "", "Custom startup command")
	estimateCmd.Flags().BoolVarP(&estimateStopEngine, "stop-engine", "s", false, "Stop the Docker engine after the run")
	estimateCmd.Flags().StringVarP(&estimateOutput, "output", "o", "", "Report path (default resource_report.json)")

	rootCmd.AddCommand(estimateCmd)
}

func main() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
