// Package learning converts resolved tickets into draft knowledge articles.
package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/governor"
	"github.com/deskhive/deskhive/internal/ledger"
	"github.com/deskhive/deskhive/internal/provider"
	"github.com/deskhive/deskhive/internal/store"
)

// Operation name recorded in the usage ledger for extraction calls.
const Operation = "learning"

// ErrNotEligible marks tickets that cannot feed the learning pipeline:
// wrong status, thread too thin, or auto-learn disabled.
var ErrNotEligible = errors.New("ticket not eligible for learning")

type learningStore interface {
	GetTicket(id int64) (*store.Ticket, error)
	ListComments(ticketID int64) ([]store.Comment, error)
	EnqueueLearning(ticketID int64) (bool, error)
	ClaimLearningItem(ticketID int64) (bool, error)
	ReleaseLearningItem(ticketID int64, status, note string) error
	CreateArticle(a *store.KnowledgeArticle) (*store.KnowledgeArticle, error)
	GetCostLimits(callerID string) (*store.CostLimits, error)
}

// Engine runs the extraction for one claimed ticket at a time. It never
// publishes; every article it creates is a draft.
type Engine struct {
	store    learningStore
	settings config.SettingsProvider
	governor *governor.Governor
	ledger   *ledger.Ledger
	backend  provider.Backend
	pricing  governor.PriceTable
	model    config.ModelConfig
	logger   *slog.Logger
}

func NewEngine(
	s learningStore,
	settings config.SettingsProvider,
	gov *governor.Governor,
	led *ledger.Ledger,
	backend provider.Backend,
	pricing governor.PriceTable,
	model config.ModelConfig,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    s,
		settings: settings,
		governor: gov,
		ledger:   led,
		backend:  backend,
		pricing:  pricing,
		model:    model,
		logger:   logger,
	}
}

// Enqueue registers a resolved ticket for learning. Idempotent; returns
// ErrNotEligible for unresolved tickets and for threads too thin to hold a
// problem/resolution exchange. The thread check runs here, before the insert,
// so an ineligible ticket never occupies a queue slot.
func (e *Engine) Enqueue(ticketID int64) (bool, error) {
	ticket, err := e.store.GetTicket(ticketID)
	if err != nil {
		return false, err
	}
	if ticket.Status != store.TicketResolved {
		return false, fmt.Errorf("%w: status %s", ErrNotEligible, ticket.Status)
	}
	comments, err := e.store.ListComments(ticketID)
	if err != nil {
		return false, err
	}
	if ok, reason := eligible(comments); !ok {
		return false, fmt.Errorf("%w: %s", ErrNotEligible, reason)
	}
	return e.store.EnqueueLearning(ticketID)
}

// LearnFrom claims a queued ticket and runs the extraction. Returns the
// created draft, or nil when the ticket was skipped (not eligible or already
// claimed by another sweep).
func (e *Engine) LearnFrom(ctx context.Context, ticketID int64) (*store.KnowledgeArticle, error) {
	settings, err := e.settings.Settings()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if !settings.AutoLearnEnabled {
		return nil, fmt.Errorf("%w: auto-learn disabled", ErrNotEligible)
	}

	ticket, err := e.store.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != store.TicketResolved {
		return nil, fmt.Errorf("%w: status %s", ErrNotEligible, ticket.Status)
	}

	claimed, err := e.store.ClaimLearningItem(ticketID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Another sweep owns it, or it already finished.
		return nil, nil
	}

	article, err := e.process(ctx, ticket, settings)
	if err != nil {
		if errors.Is(err, ErrNotEligible) {
			e.releaseQuietly(ticketID, store.LearnDone, "skipped: "+err.Error())
			return nil, err
		}
		// Unexpected failure rolls the claim back so the item is not lost.
		e.releaseQuietly(ticketID, store.LearnPending, err.Error())
		return nil, err
	}
	e.releaseQuietly(ticketID, store.LearnDone, "article "+article.ID)
	return article, nil
}

func (e *Engine) process(ctx context.Context, ticket *store.Ticket, settings config.Settings) (*store.KnowledgeArticle, error) {
	comments, err := e.store.ListComments(ticket.ID)
	if err != nil {
		return nil, err
	}
	if ok, reason := eligible(comments); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotEligible, reason)
	}

	model := e.model.Name
	if i := strings.IndexByte(model, '/'); i >= 0 {
		model = model[i+1:]
	}
	prompt := buildExtractionPrompt(ticket, comments)
	estIn := len(extractionSystemPrompt+prompt) / 4
	limits := governor.FromSettings(settings)
	if row, err := e.store.GetCostLimits("learning"); err != nil {
		e.logger.Warn("cost limits read failed", "caller", "learning", "error", err)
	} else if row != nil {
		limits = governor.FromRow(row)
	}
	decision, err := e.governor.Admit(governor.Request{
		CallerID:        "learning",
		Model:           model,
		EstInputTokens:  estIn,
		EstOutputTokens: e.model.MaxOutputTokens,
	}, limits)
	if err != nil {
		return nil, fmt.Errorf("governor: %w", err)
	}
	if !decision.Allowed {
		if err := e.ledger.RecordBlocked(&ledger.BlockedCall{
			CallerID:      "learning",
			Operation:     Operation,
			Reason:        decision.Reason,
			EstimatedCost: decision.EstimatedCost,
			TicketID:      &ticket.ID,
		}); err != nil {
			e.logger.Warn("blocked-call record failed", "error", err)
		}
		// A useful resolved ticket is never dropped: denied extraction still
		// yields a raw draft for a human to polish.
		e.logger.Info("extraction blocked, drafting raw", "ticket", ticket.ID, "reason", decision.Reason)
		return e.draftRaw(ticket, comments)
	}

	resp, err := e.backend.Complete(ctx, &provider.CompletionRequest{
		System:          extractionSystemPrompt,
		Prompt:          prompt,
		Model:           e.model.Name,
		MaxOutputTokens: e.model.MaxOutputTokens,
		Temperature:     e.model.Temperature,
	})
	if err != nil {
		e.logger.Warn("extraction inference failed, drafting raw", "ticket", ticket.ID, "error", err)
		return e.draftRaw(ticket, comments)
	}

	cost := e.pricing.Cost(model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	if err := e.ledger.Record(&ledger.Entry{
		CallerID:     "learning",
		Operation:    Operation,
		Model:        model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD:      cost,
		TicketID:     &ticket.ID,
	}); err != nil {
		e.logger.Warn("usage record failed", "ticket", ticket.ID, "error", err)
	}

	raw, err := parseExtraction(resp.Text)
	if err != nil {
		e.logger.Warn("extraction output malformed, drafting raw", "ticket", ticket.ID, "error", err)
		return e.draftRaw(ticket, comments)
	}

	article, err := e.store.CreateArticle(&store.KnowledgeArticle{
		Title:           raw.Title,
		Summary:         raw.Summary,
		Content:         articleContent(raw),
		Category:        ticket.Category,
		Tags:            mergeTags(deriveTags(ticket), raw.Tags),
		SourceTicketIDs: []int64{ticket.ID},
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("draft article created", "ticket", ticket.ID, "article", article.ID, "title", article.Title)
	return article, nil
}

// draftRaw creates the fallback draft from the unprocessed thread.
func (e *Engine) draftRaw(ticket *store.Ticket, comments []store.Comment) (*store.KnowledgeArticle, error) {
	article, err := e.store.CreateArticle(&store.KnowledgeArticle{
		Title:           ticket.Title,
		Summary:         "Unprocessed draft from resolved ticket; needs editing.",
		Content:         rawDraftContent(ticket, comments),
		Category:        ticket.Category,
		Tags:            mergeTags(deriveTags(ticket), []string{"needs-review"}),
		SourceTicketIDs: []int64{ticket.ID},
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("raw draft created", "ticket", ticket.ID, "article", article.ID)
	return article, nil
}

func (e *Engine) releaseQuietly(ticketID int64, status, note string) {
	if err := e.store.ReleaseLearningItem(ticketID, status, note); err != nil {
		e.logger.Error("learning queue release failed", "ticket", ticketID, "status", status, "error", err)
	}
}
