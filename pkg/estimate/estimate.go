// Package estimate runs one container profiling cycle: start the container,
// sample its stats over a bounded window, aggregate the series, and derive a
// capacity recommendation. The container runtime is abstracted behind Source
// so the whole cycle is testable without a Docker daemon.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/container-make/sizer/pkg/logger"
	"github.com/container-make/sizer/pkg/recommend"
	"github.com/container-make/sizer/pkg/stats"
)

// Typed failures. Anything that prevents producing a summary surfaces as one
// of these (wrapped with detail); cleanup failures are only logged.
var (
	// ErrImageUnavailable means the image is not present locally and the
	// registry pull failed.
	ErrImageUnavailable = errors.New("image unavailable")

	// ErrPrematureExit means the container left the running state before a
	// single usable sample was collected.
	ErrPrematureExit = errors.New("container exited before sampling started")

	// ErrNoData re-exports the aggregation failure for callers that only
	// import this package.
	ErrNoData = stats.ErrNoData
)

// Handle identifies a started container. It is owned by exactly one run from
// start to teardown.
type Handle string

// Container run states reported by a Source.
const (
	StateRunning = "running"
	StateExited  = "exited"
)

// Source is the container runtime consumed by an estimation run.
type Source interface {
	ImageExists(ctx context.Context, image string) bool
	PullImage(ctx context.Context, image string) error

	// StartContainer starts a detached container. An empty command means the
	// image's own default entrypoint.
	StartContainer(ctx context.Context, image, command string) (Handle, error)

	State(ctx context.Context, h Handle) (string, error)
	Stats(ctx context.Context, h Handle) (stats.Snapshot, error)

	// StopAndRemove tears the container down. Errors are reported for
	// logging but never fail a run.
	StopAndRemove(ctx context.Context, h Handle) error
}

// EngineStopper is implemented by sources that can shut down the container
// engine itself after a run.
type EngineStopper interface {
	StopEngine(ctx context.Context) error
}

// Request configures one estimation run.
type Request struct {
	Image    string
	Duration time.Duration
	Interval time.Duration

	// Command overrides the startup command chain entirely.
	Command string

	// PresetCommand is the known-good command for this image, tried after
	// Command and before the generic keep-alive fallbacks.
	PresetCommand string

	// StartupDelay postpones sampling so slow-starting images settle first.
	StartupDelay time.Duration

	// StopEngine shuts the container engine down after the run.
	StopEngine bool
}

// Capacity is the recommended tier as it appears in the report artifact.
type Capacity struct {
	VCPU  int     `json:"vcpu"`
	RAMGB float64 `json:"ram_gb"`
}

// Report is the result artifact of a successful run. The field set is relied
// on by the batch comparison tooling and the web control plane.
type Report struct {
	Image          string                        `json:"image"`
	DurationSec    int                           `json:"duration_sec"`
	CPUAvg         float64                       `json:"cpu_avg"`
	CPUPeak        float64                       `json:"cpu_peak"`
	MemAvgMB       float64                       `json:"mem_avg_mb"`
	MemPeakMB      float64                       `json:"mem_peak_mb"`
	Recommendation Capacity                      `json:"recommendation"`
	Instances      map[recommend.Provider]string `json:"instance_by_provider"`
	EarlyExit      bool                          `json:"early_exit"`
	Samples        int                           `json:"samples"`
	Command        string                        `json:"command,omitempty"`
}

// Estimator drives profiling runs against a Source.
type Estimator struct {
	source Source
}

// New returns an Estimator backed by the given source.
func New(source Source) *Estimator {
	return &Estimator{source: source}
}

// DefaultDuration is used when a request leaves Duration unset.
const DefaultDuration = 30 * time.Second

// candidates returns the ordered startup command chain for a request. The
// empty string at the end means the image's own default entrypoint.
func candidates(req Request) []string {
	if req.Command != "" {
		return []string{req.Command}
	}

	chain := make([]string, 0, 5)
	if req.PresetCommand != "" {
		chain = append(chain, req.PresetCommand)
	}
	chain = append(chain,
		"tail -f /dev/null",
		"sleep infinity",
		`/bin/sh -c "sleep infinity"`,
		"",
	)
	return chain
}

// Run executes one profiling cycle and returns the report. The container is
// torn down on every exit path; teardown failures are logged and swallowed
// because the measurement has already succeeded or failed on its own terms.
// Engine shutdown, when requested, happens only after teardown so the daemon
// is still alive to stop and remove the container.
func (e *Estimator) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Image == "" {
		return nil, errors.New("no image specified")
	}
	if req.Duration <= 0 {
		req.Duration = DefaultDuration
	}
	if req.Interval <= 0 {
		req.Interval = stats.DefaultInterval
	}

	report, err := e.profile(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.StopEngine {
		e.stopEngine(ctx)
	}

	return report, nil
}

// profile runs the container, samples it, and builds the report. The deferred
// teardown has finished by the time profile returns.
func (e *Estimator) profile(ctx context.Context, req Request) (*Report, error) {
	if err := e.ensureImage(ctx, req.Image); err != nil {
		return nil, err
	}

	handle, command, err := e.start(ctx, req)
	if err != nil {
		return nil, err
	}

	defer func() {
		// Teardown must run even when the surrounding context is already
		// cancelled, so it gets its own deadline.
		teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := e.source.StopAndRemove(teardownCtx, handle); err != nil {
			logger.Warn("teardown of container %s failed: %v", handle, err)
		}
	}()

	if req.StartupDelay > 0 {
		select {
		case <-time.After(req.StartupDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	series, err := e.sample(ctx, handle, req.Duration, req.Interval)
	if err != nil {
		return nil, err
	}

	summary, err := stats.Summarize(series)
	if err != nil {
		return nil, fmt.Errorf("profiling %s: %w", req.Image, err)
	}

	rec := recommend.FromSummary(summary)

	return &Report{
		Image:          req.Image,
		DurationSec:    int(req.Duration / time.Second),
		CPUAvg:         summary.CPUAvg,
		CPUPeak:        summary.CPUPeak,
		MemAvgMB:       summary.MemAvgMB,
		MemPeakMB:      summary.MemPeakMB,
		Recommendation: Capacity{VCPU: rec.VCPU, RAMGB: rec.RAMGB},
		Instances:      rec.Instances,
		EarlyExit:      series.EarlyExit,
		Samples:        summary.Samples,
		Command:        command,
	}, nil
}

// ensureImage verifies local presence, pulling once from the registry when
// missing. A failed pull is fatal to the run.
func (e *Estimator) ensureImage(ctx context.Context, image string) error {
	if e.source.ImageExists(ctx, image) {
		logger.Debug("image %s found locally", image)
		return nil
	}

	logger.Info("image %s not found locally, pulling", image)
	if err := e.source.PullImage(ctx, image); err != nil {
		return fmt.Errorf("%w: pulling %s: %v", ErrImageUnavailable, image, err)
	}
	return nil
}

// start walks the startup command chain until a candidate yields a started
// container. Start failures advance the chain; all candidates failing is
// fatal.
func (e *Estimator) start(ctx context.Context, req Request) (Handle, string, error) {
	var lastErr error
	for _, cmd := range candidates(req) {
		handle, err := e.source.StartContainer(ctx, req.Image, cmd)
		if err != nil {
			logger.Debug("start %s with command %q failed: %v", req.Image, cmd, err)
			lastErr = err
			continue
		}
		if cmd == "" {
			logger.Info("container started with image default entrypoint")
		} else {
			logger.Info("container started with command: %s", cmd)
		}
		return handle, cmd, nil
	}
	return "", "", fmt.Errorf("failed to start container from %s: %w", req.Image, lastErr)
}

// sample polls the source once per interval until the window elapses, the
// container stops, or the context is cancelled. The first snapshot only seeds
// the CPU delta baseline. Individual poll failures are skipped while the
// container is still running.
func (e *Estimator) sample(ctx context.Context, h Handle, duration, interval time.Duration) (*stats.Series, error) {
	series := &stats.Series{}
	var prev *stats.Snapshot

	deadline := time.Now().Add(duration)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		state, err := e.source.State(ctx, h)
		if err != nil {
			logger.Debug("state check failed, skipping tick: %v", err)
		} else if state != StateRunning {
			if series.Len() == 0 {
				return nil, fmt.Errorf("%w (state %s)", ErrPrematureExit, state)
			}
			logger.Warn("container stopped after %d samples, keeping partial series", series.Len())
			series.EarlyExit = true
			return series, nil
		} else {
			snap, err := e.source.Stats(ctx, h)
			if err != nil {
				logger.Debug("stats poll failed, skipping tick: %v", err)
			} else {
				if prev != nil {
					series.Append(stats.Point{
						CPUPercent: stats.CPUPercent(*prev, snap),
						MemoryMB:   stats.MemoryMB(snap),
					})
				}
				prev = &snap
			}
		}

		select {
		case <-ctx.Done():
			// Cancellation between ticks goes straight to teardown. Points
			// already collected are kept so an interrupted run can still
			// produce a recommendation.
			if series.Len() == 0 {
				return nil, ctx.Err()
			}
			series.EarlyExit = true
			return series, nil
		case <-ticker.C:
		}
	}

	return series, nil
}

// stopEngine shuts down the container engine when the source supports it.
// Failure is reported but never overrides the profiling result.
func (e *Estimator) stopEngine(ctx context.Context) {
	stopper, ok := e.source.(EngineStopper)
	if !ok {
		logger.Warn("source does not support engine shutdown")
		return
	}
	if err := stopper.StopEngine(ctx); err != nil {
		logger.Warn("failed to stop container engine: %v", err)
		return
	}
	logger.Info("container engine stopped")
}
