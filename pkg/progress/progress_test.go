package progress

import (
	"sync"
	"testing"
)

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()

	if got := tr.Snapshot(); got.Status != StatusIdle {
		t.Errorf("initial status = %s, expected idle", got.Status)
	}

	tr.Start(10)
	if got := tr.Snapshot(); got.Status != StatusStarted || got.Total != 10 {
		t.Errorf("after Start: %+v", got)
	}
	if !tr.Busy() {
		t.Error("tracker should be busy after Start")
	}

	tr.Advance(3, "redis:latest")
	got := tr.Snapshot()
	if got.Status != StatusRunning {
		t.Errorf("status = %s, expected running", got.Status)
	}
	if got.Current != 3 || got.CurrentImage != "redis:latest" {
		t.Errorf("after Advance: %+v", got)
	}

	tr.Complete()
	got = tr.Snapshot()
	if got.Status != StatusComplete {
		t.Errorf("status = %s, expected complete", got.Status)
	}
	if got.Current != got.Total {
		t.Errorf("Complete should pin current to total, got %d/%d", got.Current, got.Total)
	}
	if tr.Busy() {
		t.Error("tracker should not be busy after Complete")
	}
}

func TestTracker_TerminalStatesStick(t *testing.T) {
	tr := NewTracker()
	tr.Start(5)
	tr.Fail("pull failed")

	// No later update may erase the terminal state.
	tr.Advance(4, "nginx:latest")
	tr.Complete()

	got := tr.Snapshot()
	if got.Status != StatusFailed {
		t.Errorf("status = %s, terminal failed state must stick", got.Status)
	}
	if got.Error != "pull failed" {
		t.Errorf("error = %q, expected pull failed", got.Error)
	}
}

func TestTracker_TryStart(t *testing.T) {
	tr := NewTracker()

	if !tr.TryStart(1) {
		t.Fatal("idle tracker must be claimable")
	}
	if tr.TryStart(1) {
		t.Error("claimed tracker must reject a second start")
	}

	tr.Advance(1, "nginx:latest")
	if tr.TryStart(1) {
		t.Error("running tracker must reject a start")
	}

	tr.Complete()
	if !tr.TryStart(3) {
		t.Error("finished tracker must be claimable again")
	}
	if got := tr.Snapshot(); got.Status != StatusStarted || got.Total != 3 {
		t.Errorf("after reclaim: %+v", got)
	}
}

func TestTracker_TryStartConcurrent(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	var mu sync.Mutex
	claimed := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.TryStart(1) {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if claimed != 1 {
		t.Errorf("%d concurrent claims succeeded, expected exactly 1", claimed)
	}
	if !tr.Busy() {
		t.Error("tracker should be busy after the winning claim")
	}
}

func TestTracker_ConcurrentReaders(t *testing.T) {
	tr := NewTracker()
	tr.Start(100)

	var wg sync.WaitGroup
	done := make(chan struct{})

	// Many readers polling while the single writer advances.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				s := tr.Snapshot()
				if s.Current < 0 || s.Current > s.Total {
					t.Errorf("inconsistent snapshot: %+v", s)
					return
				}
			}
		}()
	}

	for i := 1; i <= 100; i++ {
		tr.Advance(i, "alpine:latest")
	}
	tr.Complete()
	close(done)
	wg.Wait()

	if got := tr.Snapshot(); got.Status != StatusComplete {
		t.Errorf("final status = %s, expected complete", got.Status)
	}
}
