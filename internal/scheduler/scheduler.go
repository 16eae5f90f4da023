package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/deskhive/deskhive/internal/config"
)

// JobCategory classifies jobs for per-category concurrency caps.
type JobCategory string

const (
	// CategoryLLM jobs may issue inference calls and get the tightest cap.
	CategoryLLM     JobCategory = "llm"
	CategoryDefault JobCategory = "default"
)

// Job defines a schedulable unit of work.
type Job struct {
	Name     string
	Cron     *Cron
	Category JobCategory
	Run      func(ctx context.Context) error
}

// limiter caps in-flight jobs per category. Buffered-channel slots, no
// blocking acquire: a full limiter means the tick skips the job.
type limiter chan struct{}

func newLimiter(n int) limiter { return make(limiter, n) }

func (l limiter) tryAcquire() bool {
	select {
	case l <- struct{}{}:
		return true
	default:
		return false
	}
}

func (l limiter) release() { <-l }

// jobStore persists run bookkeeping (best-effort).
type jobStore interface {
	UpsertScheduledJob(name, status string, runAt time.Time) error
}

// Scheduler manages job registration, tick dispatch, and concurrency control.
// The run lock keeps two processes on the same host from sweeping at once.
type Scheduler struct {
	cfg    config.SchedulerConfig
	store  jobStore
	jobs   map[string]*Job
	mu     sync.RWMutex
	limits map[JobCategory]limiter
	lock   runLock
	logger *slog.Logger
}

// New creates a Scheduler.
func New(cfg config.SchedulerConfig, store jobStore, logger *slog.Logger) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 60 * time.Second
	}
	if cfg.MaxConcLLM <= 0 {
		cfg.MaxConcLLM = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:   cfg,
		store: store,
		jobs:  make(map[string]*Job),
		limits: map[JobCategory]limiter{
			CategoryLLM:     newLimiter(cfg.MaxConcLLM),
			CategoryDefault: newLimiter(5),
		},
		lock:   runLock{path: cfg.LockPath},
		logger: logger,
	}
}

// Register adds a job to the scheduler.
func (s *Scheduler) Register(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name] = job
	s.logger.Info("scheduler job registered", "name", job.Name, "category", job.Category)
}

// Unregister removes a job by name.
func (s *Scheduler) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, name)
}

// Jobs returns the current registered jobs (snapshot).
func (s *Scheduler) Jobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// Run starts the scheduler tick loop. Blocks until context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "tick", s.cfg.TickInterval, "jobs", len(s.jobs))
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case t := <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

// tick acquires the host-wide run lock, then dispatches any matching jobs.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	acquired, err := s.lock.acquire()
	if err != nil {
		s.logger.Warn("scheduler lock error", "error", err)
		return
	}
	if !acquired {
		s.logger.Debug("scheduler tick skipped: lock held by another process")
		return
	}
	defer s.lock.release()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, job := range s.jobs {
		if !job.Cron.Matches(now) {
			continue
		}
		s.dispatch(ctx, job, now)
	}
}

// dispatch runs a job asynchronously if its category has a free slot.
func (s *Scheduler) dispatch(ctx context.Context, job *Job, now time.Time) {
	lim, ok := s.limits[job.Category]
	if !ok {
		lim = s.limits[CategoryDefault]
	}

	if !lim.tryAcquire() {
		s.logger.Warn("scheduler job skipped: concurrency limit", "job", job.Name, "category", job.Category)
		s.logJobRun(job.Name, "skipped_concurrency", now)
		return
	}

	s.logger.Info("scheduler dispatching job", "job", job.Name)

	go func() {
		defer lim.release()
		if err := job.Run(ctx); err != nil {
			s.logger.Error("scheduler job failed", "job", job.Name, "error", err)
			s.logJobRun(job.Name, "failed", now)
			return
		}
		s.logJobRun(job.Name, "ok", now)
	}()
}

// logJobRun persists the run status to the scheduled_jobs table (best-effort).
func (s *Scheduler) logJobRun(name, status string, tick time.Time) {
	if s.store == nil {
		return
	}
	_ = s.store.UpsertScheduledJob(name, status, tick)
}
