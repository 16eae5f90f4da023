package scheduler

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deskhive/deskhive/internal/config"
)

func TestSchedulerDispatch(t *testing.T) {
	s := New(config.SchedulerConfig{
		Enabled:      true,
		TickInterval: 50 * time.Millisecond,
		MaxConcLLM:   3,
		LockPath:     filepath.Join(t.TempDir(), "test.lock"),
	}, nil, nil)

	var runs atomic.Int32
	cron, _ := ParseCron("* * * * *")
	s.Register(&Job{
		Name:     "test-job",
		Cron:     cron,
		Category: CategoryDefault,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.tick(ctx, time.Now())

	// Wait for the async dispatch.
	time.Sleep(100 * time.Millisecond)

	if runs.Load() != 1 {
		t.Errorf("expected 1 job run, got %d", runs.Load())
	}
}

func TestSchedulerNonMatchingJobNotDispatched(t *testing.T) {
	s := New(config.SchedulerConfig{
		TickInterval: 50 * time.Millisecond,
		LockPath:     filepath.Join(t.TempDir(), "test.lock"),
	}, nil, nil)

	var runs atomic.Int32
	cron, _ := ParseCron("0 0 * * *")
	s.Register(&Job{
		Name:     "midnight-only",
		Cron:     cron,
		Category: CategoryDefault,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	noon := time.Date(2026, 2, 15, 12, 30, 0, 0, time.UTC)
	s.tick(context.Background(), noon)

	time.Sleep(100 * time.Millisecond)

	if runs.Load() != 0 {
		t.Errorf("expected 0 runs at noon, got %d", runs.Load())
	}
}

func TestRunLockPreventsOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlap.lock")
	first := runLock{path: path}
	second := runLock{path: path}

	ok, err := first.acquire()
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v", ok, err)
	}

	ok, err = second.acquire()
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		second.release()
		t.Fatal("second holder acquired while first still holds the lock")
	}

	first.release()

	ok, err = second.acquire()
	if err != nil || !ok {
		t.Fatalf("acquire after release = %v, %v", ok, err)
	}
	second.release()
}

func TestRunLockEmptyPathNeverBlocks(t *testing.T) {
	var a, b runLock
	for _, l := range []*runLock{&a, &b} {
		ok, err := l.acquire()
		if err != nil || !ok {
			t.Fatalf("acquire with no lock path = %v, %v", ok, err)
		}
	}
	a.release()
	b.release()
}

func TestLimiterCapsInFlightJobs(t *testing.T) {
	lim := newLimiter(2)

	if !lim.tryAcquire() || !lim.tryAcquire() {
		t.Fatal("first two slots should be free")
	}
	if lim.tryAcquire() {
		t.Error("third acquire should fail at cap 2")
	}

	lim.release()
	if !lim.tryAcquire() {
		t.Error("acquire after release should succeed")
	}
}

func TestSchedulerSkipsJobAtConcurrencyLimit(t *testing.T) {
	s := New(config.SchedulerConfig{
		TickInterval: 50 * time.Millisecond,
		MaxConcLLM:   1,
		LockPath:     filepath.Join(t.TempDir(), "test.lock"),
	}, nil, nil)

	release := make(chan struct{})
	var runs atomic.Int32
	cron, _ := ParseCron("* * * * *")
	s.Register(&Job{
		Name:     "slow-llm",
		Cron:     cron,
		Category: CategoryLLM,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			<-release
			return nil
		},
	})

	ctx := context.Background()
	s.tick(ctx, time.Now())
	time.Sleep(50 * time.Millisecond)
	// Second tick finds the single slot occupied.
	s.tick(ctx, time.Now())
	time.Sleep(50 * time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1 while the slot is held", got)
	}
	close(release)
}
