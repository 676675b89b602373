package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/container-make/sizer/pkg/estimate"
	"github.com/container-make/sizer/pkg/preset"
	"github.com/container-make/sizer/pkg/progress"
	"github.com/container-make/sizer/pkg/stats"
)

// batchSource is a minimal in-memory Source whose per-image behavior is
// keyed by image name.
type batchSource struct {
	mu       sync.Mutex
	polls    map[string]int
	failPull map[string]bool
}

func newBatchSource() *batchSource {
	return &batchSource{polls: make(map[string]int), failPull: make(map[string]bool)}
}

func (b *batchSource) ImageExists(ctx context.Context, image string) bool {
	return !b.failPull[image]
}

func (b *batchSource) PullImage(ctx context.Context, image string) error {
	if b.failPull[image] {
		return errors.New("registry unavailable")
	}
	return nil
}

func (b *batchSource) StartContainer(ctx context.Context, image, command string) (estimate.Handle, error) {
	return estimate.Handle(image), nil
}

func (b *batchSource) State(ctx context.Context, h estimate.Handle) (string, error) {
	return estimate.StateRunning, nil
}

func (b *batchSource) Stats(ctx context.Context, h estimate.Handle) (stats.Snapshot, error) {
	b.mu.Lock()
	b.polls[string(h)]++
	n := b.polls[string(h)]
	b.mu.Unlock()

	return stats.Snapshot{
		Timestamp:      time.Now(),
		CPUTotal:       uint64(n) * 100_000_000,
		SystemCPUTotal: uint64(n) * 1_000_000_000,
		OnlineCPUs:     1,
		MemoryUsage:    64 * 1024 * 1024,
	}, nil
}

func (b *batchSource) StopAndRemove(ctx context.Context, h estimate.Handle) error {
	return nil
}

func fastRunner(src estimate.Source, tracker *progress.Tracker) *Runner {
	r := NewRunner(estimate.New(src), tracker)
	r.Duration = 10 * time.Millisecond
	r.Interval = time.Millisecond
	return r
}

func testImages() []preset.Image {
	return []preset.Image{
		{Name: "nginx:latest", Command: "nginx -g 'daemon off;'"},
		{Name: "redis:latest", Command: "redis-server"},
		{Name: "alpine:latest"},
	}
}

func TestRun_AllSucceed(t *testing.T) {
	tracker := progress.NewTracker()
	runner := fastRunner(newBatchSource(), tracker)

	results := runner.Run(context.Background(), testImages())
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Error != "" {
			t.Errorf("result %d (%s) failed: %s", i, res.Image, res.Error)
		}
		if res.Report == nil {
			t.Errorf("result %d (%s) has no report", i, res.Image)
		}
	}

	// Input order preserved.
	if results[0].Image != "nginx:latest" || results[2].Image != "alpine:latest" {
		t.Error("results out of input order")
	}

	state := tracker.Snapshot()
	if state.Status != progress.StatusComplete {
		t.Errorf("tracker status = %s, expected complete", state.Status)
	}
	if state.Current != state.Total || state.Total != 3 {
		t.Errorf("tracker counts = %d/%d", state.Current, state.Total)
	}
}

func TestRun_FailureDoesNotStopBatch(t *testing.T) {
	src := newBatchSource()
	src.failPull["redis:latest"] = true
	tracker := progress.NewTracker()
	runner := fastRunner(src, tracker)

	results := runner.Run(context.Background(), testImages())

	if results[1].Error == "" {
		t.Error("redis result should carry its pull failure")
	}
	if results[0].Report == nil || results[2].Report == nil {
		t.Error("other images must still be profiled")
	}

	// The batch itself completed; only one member failed.
	if got := tracker.Snapshot().Status; got != progress.StatusComplete {
		t.Errorf("tracker status = %s, expected complete", got)
	}
}

func TestRun_Parallel(t *testing.T) {
	tracker := progress.NewTracker()
	runner := fastRunner(newBatchSource(), tracker)
	runner.Parallel = 3

	results := runner.Run(context.Background(), testImages())
	for _, res := range results {
		if res.Report == nil {
			t.Errorf("%s: missing report (%s)", res.Image, res.Error)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	tracker := progress.NewTracker()
	runner := fastRunner(newBatchSource(), tracker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := runner.Run(ctx, testImages())
	for _, res := range results {
		if res.Error == "" && res.Report == nil {
			t.Errorf("%s: cancelled batch entry has neither report nor error", res.Image)
		}
	}

	if got := tracker.Snapshot().Status; got != progress.StatusFailed {
		t.Errorf("tracker status = %s, expected failed", got)
	}
}

func TestReports(t *testing.T) {
	results := []Result{
		{Image: "a", Report: &estimate.Report{Image: "a"}},
		{Image: "b", Error: "boom"},
		{Image: "c", Report: &estimate.Report{Image: "c"}},
	}

	reports := Reports(results)
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Image != "a" || reports[1].Image != "c" {
		t.Error("reports out of order")
	}
}
