// Package batch profiles a list of images in one run, feeding a shared
// progress tracker that observers may poll concurrently.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/logger"
	"github.com/container-make/sizer/pkg/preset"
	"github.com/container-make/sizer/pkg/progress"
)

// Result is the outcome for one image. Exactly one of Report and Error is
// meaningful.
type Result struct {
	Image  string           `json:"image"`
	Report *estimate.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Runner profiles images one after another, or with bounded concurrency.
type Runner struct {
	estimator *estimate.Estimator
	tracker   *progress.Tracker

	// Parallel bounds how many images are profiled at once. Values below 1
	// mean sequential. Each run still owns its container exclusively.
	Parallel int

	// Duration is the sampling window applied to every image.
	Duration time.Duration

	// Interval overrides the sampling cadence when set.
	Interval time.Duration
}

// NewRunner creates a batch runner reporting into tracker.
func NewRunner(est *estimate.Estimator, tracker *progress.Tracker) *Runner {
	return &Runner{estimator: est, tracker: tracker, Parallel: 1}
}

// Run profiles every image and returns one result per image, in input order.
// A failing image records its error and the batch moves on; only an empty
// image list or upfront cancellation yields no results.
func (r *Runner) Run(ctx context.Context, images []preset.Image) []Result {
	id := uuid.NewString()
	logger.Info("batch %s: profiling %d images", id, len(images))

	r.tracker.Start(len(images))
	results := make([]Result, len(images))

	workers := r.Parallel
	if workers < 1 {
		workers = 1
	}
	if workers > len(images) {
		workers = len(images)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)
	sem := make(chan struct{}, workers)

	for i, img := range images {
		if ctx.Err() != nil {
			results[i] = Result{Image: img.Name, Error: ctx.Err().Error()}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, img preset.Image) {
			defer wg.Done()
			defer func() { <-sem }()

			mu.Lock()
			completed++
			r.tracker.Advance(completed, img.Name)
			mu.Unlock()

			results[i] = r.one(ctx, img)
		}(i, img)
	}

	wg.Wait()

	if ctx.Err() != nil {
		r.tracker.Fail(ctx.Err().Error())
	} else {
		r.tracker.Complete()
	}
	logger.Info("batch %s: done", id)
	return results
}

func (r *Runner) one(ctx context.Context, img preset.Image) Result {
	req := estimate.Request{
		Image:         img.Name,
		Duration:      r.Duration,
		Interval:      r.Interval,
		PresetCommand: img.Command,
		StartupDelay:  img.StartupDelay,
	}

	rep, err := r.estimator.Run(ctx, req)
	if err != nil {
		logger.Warn("batch: %s failed: %v", img.Name, err)
		return Result{Image: img.Name, Error: err.Error()}
	}
	return Result{Image: img.Name, Report: rep}
}

// Reports filters the successful reports out of a result list, preserving
// order.
func Reports(results []Result) []*estimate.Report {
	out := make([]*estimate.Report, 0, len(results))
	for _, res := range results {
		if res.Report != nil {
			out = append(out, res.Report)
		}
	}
	return out
}
