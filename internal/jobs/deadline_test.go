package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSweeper struct {
	calls  atomic.Int32
	window atomic.Int64
	err    error
}

func (f *fakeSweeper) SweepDeadlines(_ context.Context, window time.Duration) (int, error) {
	f.calls.Add(1)
	f.window.Store(int64(window))
	return 1, f.err
}

func TestDeadlineScheduler_SweepsImmediatelyAndOnTick(t *testing.T) {
	f := &fakeSweeper{}
	s := NewDeadlineScheduler(f, 10*time.Millisecond, 2*time.Hour)
	s.Start()

	deadline := time.Now().Add(time.Second)
	for f.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if got := f.calls.Load(); got < 3 {
		t.Fatalf("sweeps = %d, want at least 3", got)
	}
	if got := time.Duration(f.window.Load()); got != 2*time.Hour {
		t.Errorf("window = %v, want 2h", got)
	}

	after := f.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if f.calls.Load() != after {
		t.Error("scheduler kept sweeping after Stop")
	}
}

func TestDeadlineScheduler_Disabled(t *testing.T) {
	f := &fakeSweeper{}
	s := NewDeadlineScheduler(f, 0, time.Hour)
	s.Start()
	s.Stop()
	s.Stop()

	if f.calls.Load() != 0 {
		t.Errorf("disabled scheduler swept %d times", f.calls.Load())
	}
}

func TestDeadlineScheduler_ErrorsDoNotStopTheLoop(t *testing.T) {
	f := &fakeSweeper{err: errors.New("db down")}
	s := NewDeadlineScheduler(f, 5*time.Millisecond, time.Hour)
	s.Start()

	deadline := time.Now().Add(time.Second)
	for f.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	if f.calls.Load() < 2 {
		t.Errorf("sweeps = %d, want the loop to survive a failed sweep", f.calls.Load())
	}
}
