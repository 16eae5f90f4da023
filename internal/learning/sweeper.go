package learning

import (
	"context"
	"errors"
	"log/slog"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/store"
)

type sweepStore interface {
	ListLearningQueue(status string, limit int) ([]store.LearningQueueItem, error)
	ResolvedTicketsNotQueued(limit int) ([]store.Ticket, error)
	EnqueueLearning(ticketID int64) (bool, error)
}

// Sweeper drives the engine: an in-process work channel for tickets resolved
// while running, plus a periodic sweep that picks up pending queue items and
// tickets resolved while the process was down.
type Sweeper struct {
	engine *Engine
	store  sweepStore
	work   chan int64
	batch  int
	logger *slog.Logger
}

func NewSweeper(engine *Engine, s sweepStore, cfg config.LearningConfig, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}
	batch := cfg.SweepBatchSize
	if batch <= 0 {
		batch = 10
	}
	return &Sweeper{
		engine: engine,
		store:  s,
		work:   make(chan int64, size),
		batch:  batch,
		logger: logger,
	}
}

// Notify hands a freshly resolved ticket to the worker. Non-blocking: when
// the buffer is full the ticket stays in the durable queue for the next
// sweep, so nothing is lost.
func (w *Sweeper) Notify(ticketID int64) {
	select {
	case w.work <- ticketID:
	default:
		w.logger.Debug("learning work buffer full, deferring to sweep", "ticket", ticketID)
	}
}

// Run processes the work channel until the context ends. This should be run
// as a goroutine.
func (w *Sweeper) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ticketID := <-w.work:
			w.learn(ctx, ticketID)
		}
	}
}

// Sweep runs one catch-up pass: pending queue items first, then resolved
// tickets that never entered the queue. Called from the scheduler.
func (w *Sweeper) Sweep(ctx context.Context) error {
	pending, err := w.store.ListLearningQueue(store.LearnPending, w.batch)
	if err != nil {
		return err
	}
	for _, item := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.learn(ctx, item.TicketID)
	}

	missed, err := w.store.ResolvedTicketsNotQueued(w.batch)
	if err != nil {
		return err
	}
	for _, t := range missed {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := w.store.EnqueueLearning(t.ID); err != nil {
			w.logger.Warn("sweep enqueue failed", "ticket", t.ID, "error", err)
			continue
		}
		w.learn(ctx, t.ID)
	}
	return nil
}

func (w *Sweeper) learn(ctx context.Context, ticketID int64) {
	_, err := w.engine.LearnFrom(ctx, ticketID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotEligible):
		w.logger.Debug("ticket skipped", "ticket", ticketID, "reason", err)
	default:
		w.logger.Error("learning failed", "ticket", ticketID, "error", err)
	}
}
