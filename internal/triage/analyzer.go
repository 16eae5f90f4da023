// Package triage turns a new ticket into a complexity score, routing
// suggestions, and, when confidence allows, an applied auto-response.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/faqcache"
	"github.com/deskhive/deskhive/internal/governor"
	"github.com/deskhive/deskhive/internal/ledger"
	"github.com/deskhive/deskhive/internal/provider"
	"github.com/deskhive/deskhive/internal/store"
)

// Operation name recorded in the usage ledger for triage calls.
const Operation = "triage"

// Analysis sources.
const (
	SourceInference = "inference"
	SourceCache     = "cache"
	SourceFallback  = "fallback"
)

// neutralComplexity is the mid-point default used when no real analysis is
// available (governor denial, malformed output).
const neutralComplexity = 50

// Analysis is the outcome of analyzing one ticket. Blocked analyses carry the
// denial reason and still let ticket creation complete.
type Analysis struct {
	TicketID          int64
	Source            string
	KeyIssues         []string
	SuggestedCategory string
	SuggestedPriority string
	ComplexityScore   int
	RequiredExpertise []string
	EstimatedHours    float64
	AutoResponse      string
	Confidence        float64
	Applied           bool

	Blocked       bool
	BlockedReason string
	EstimatedCost float64
}

type triageStore interface {
	GetTicket(id int64) (*store.Ticket, error)
	SaveComplexityScore(cs *store.ComplexityScore) (*store.ComplexityScore, error)
	SaveAutoResponse(ar *store.AutoResponse) (*store.AutoResponse, error)
	AddComment(c *store.Comment) (*store.Comment, error)
	GetCostLimits(callerID string) (*store.CostLimits, error)
}

// Analyzer orchestrates the triage path: settings, governor, cache, backend,
// persistence. Settings are read fresh per call.
type Analyzer struct {
	store    triageStore
	settings config.SettingsProvider
	governor *governor.Governor
	cache    *faqcache.Cache
	ledger   *ledger.Ledger
	backend  provider.Backend
	pricing  governor.PriceTable
	model    config.ModelConfig
	logger   *slog.Logger
}

func NewAnalyzer(
	s triageStore,
	settings config.SettingsProvider,
	gov *governor.Governor,
	cache *faqcache.Cache,
	led *ledger.Ledger,
	backend provider.Backend,
	pricing governor.PriceTable,
	model config.ModelConfig,
	logger *slog.Logger,
) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		store:    s,
		settings: settings,
		governor: gov,
		cache:    cache,
		ledger:   led,
		backend:  backend,
		pricing:  pricing,
		model:    model,
		logger:   logger,
	}
}

// Analyze runs the full triage path for a ticket. It returns an error only on
// storage failures; inference problems degrade into a fallback analysis so
// the ticket-creation flow always completes.
func (a *Analyzer) Analyze(ctx context.Context, ticketID int64, callerID string) (*Analysis, error) {
	ticket, err := a.store.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	settings, err := a.settings.Settings()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	model := a.model.Name
	if i := strings.IndexByte(model, '/'); i >= 0 {
		model = model[i+1:]
	}
	prompt := buildPrompt(ticket)
	req := governor.Request{
		CallerID:        callerID,
		Model:           model,
		EstInputTokens:  estimateTokens(systemPrompt + prompt),
		EstOutputTokens: a.model.MaxOutputTokens,
	}
	limits := governor.FromSettings(settings)
	if row, err := a.store.GetCostLimits(callerID); err != nil {
		a.logger.Warn("cost limits read failed", "caller", callerID, "error", err)
	} else if row != nil {
		limits = governor.FromRow(row)
	}
	decision, err := a.governor.Admit(req, limits)
	if err != nil {
		return nil, fmt.Errorf("governor: %w", err)
	}
	if !decision.Allowed {
		if err := a.ledger.RecordBlocked(&ledger.BlockedCall{
			CallerID:      callerID,
			Operation:     Operation,
			Reason:        decision.Reason,
			EstimatedCost: decision.EstimatedCost,
			TicketID:      &ticket.ID,
		}); err != nil {
			a.logger.Warn("blocked-call record failed", "error", err)
		}
		a.logger.Info("triage blocked", "ticket", ticket.ID, "reason", decision.Reason)
		return &Analysis{
			TicketID:          ticket.ID,
			Source:            SourceFallback,
			SuggestedCategory: ticket.Category,
			SuggestedPriority: ticket.Priority,
			ComplexityScore:   neutralComplexity,
			Blocked:           true,
			BlockedReason:     decision.Reason,
			EstimatedCost:     decision.EstimatedCost,
		}, nil
	}

	// Cache check after admission: a hit costs nothing, so the consumed
	// window slot is the price of keeping admission atomic.
	question := cacheQuestion(ticket)
	if entry, err := a.cache.Lookup(question); err != nil {
		a.logger.Warn("cache lookup failed", "ticket", ticket.ID, "error", err)
	} else if entry != nil {
		return a.applyCached(ticket, entry, settings)
	}

	resp, err := a.backend.Complete(ctx, &provider.CompletionRequest{
		System:          systemPrompt,
		Prompt:          prompt,
		Model:           a.model.Name,
		MaxOutputTokens: a.model.MaxOutputTokens,
		Temperature:     a.model.Temperature,
	})
	if err != nil {
		// Unavailable, timeout, rejected: all recoverable. No confirmed
		// cost, so nothing enters the ledger.
		a.logger.Warn("triage inference failed", "ticket", ticket.ID, "error", err)
		return a.fallback(ticket)
	}

	cost := a.pricing.Cost(model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	if err := a.ledger.Record(&ledger.Entry{
		CallerID:     callerID,
		Operation:    Operation,
		Model:        model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		CostUSD:      cost,
		TicketID:     &ticket.ID,
	}); err != nil {
		a.logger.Warn("usage record failed", "ticket", ticket.ID, "error", err)
	}

	raw, err := parseAnalysis(resp.Text)
	if err != nil {
		if !errors.Is(err, ErrMalformedOutput) {
			return nil, err
		}
		a.logger.Warn("triage output malformed", "ticket", ticket.ID, "error", err)
		return a.fallback(ticket)
	}

	analysis := &Analysis{
		TicketID:          ticket.ID,
		Source:            SourceInference,
		KeyIssues:         raw.KeyIssues,
		SuggestedCategory: raw.SuggestedCategory,
		SuggestedPriority: raw.SuggestedPriority,
		ComplexityScore:   int(raw.ComplexityScore),
		RequiredExpertise: raw.RequiredExpertise,
		EstimatedHours:    raw.EstimatedHours,
		AutoResponse:      raw.AutoResponse,
		Confidence:        raw.Confidence,
	}
	if analysis.SuggestedCategory == "" {
		analysis.SuggestedCategory = ticket.Category
	}
	if analysis.SuggestedPriority == "" {
		analysis.SuggestedPriority = ticket.Priority
	}

	if _, err := a.store.SaveComplexityScore(&store.ComplexityScore{
		TicketID:  ticket.ID,
		Score:     analysis.ComplexityScore,
		Factors:   analysis.KeyIssues,
		Rationale: fmt.Sprintf("confidence %.2f, estimated %.1fh", analysis.Confidence, analysis.EstimatedHours),
	}); err != nil {
		return nil, err
	}

	if analysis.AutoResponse != "" {
		applied := analysis.Confidence >= settings.ConfidenceThreshold &&
			len(analysis.AutoResponse) >= settings.MinResponseLength
		if _, err := a.store.SaveAutoResponse(&store.AutoResponse{
			TicketID:   ticket.ID,
			Body:       analysis.AutoResponse,
			Confidence: analysis.Confidence,
			WasApplied: applied,
		}); err != nil {
			return nil, err
		}
		analysis.Applied = applied
		if applied {
			if err := a.emitComment(ticket.ID, analysis.AutoResponse); err != nil {
				return nil, err
			}
			// Only applied answers enter the cache; the prompt uses public
			// ticket fields only, so the answer is context-free by build.
			if err := a.cache.Store(question, analysis.AutoResponse); err != nil {
				a.logger.Warn("cache store failed", "ticket", ticket.ID, "error", err)
			}
		}
	}

	a.logger.Info("ticket analyzed", "ticket", ticket.ID,
		"complexity", analysis.ComplexityScore, "confidence", analysis.Confidence,
		"applied", analysis.Applied)
	return analysis, nil
}

// applyCached serves a cache hit: the stored answer is applied without any
// inference call or complexity analysis.
func (a *Analyzer) applyCached(ticket *store.Ticket, entry *store.FaqEntry, settings config.Settings) (*Analysis, error) {
	analysis := &Analysis{
		TicketID:          ticket.ID,
		Source:            SourceCache,
		SuggestedCategory: ticket.Category,
		SuggestedPriority: ticket.Priority,
		ComplexityScore:   neutralComplexity,
		AutoResponse:      entry.Answer,
		Confidence:        1,
	}
	applied := len(entry.Answer) >= settings.MinResponseLength
	if _, err := a.store.SaveAutoResponse(&store.AutoResponse{
		TicketID:   ticket.ID,
		Body:       entry.Answer,
		Confidence: analysis.Confidence,
		WasApplied: applied,
	}); err != nil {
		return nil, err
	}
	analysis.Applied = applied
	if applied {
		if err := a.emitComment(ticket.ID, entry.Answer); err != nil {
			return nil, err
		}
	}
	a.logger.Info("ticket answered from cache", "ticket", ticket.ID, "hits", entry.HitCount)
	return analysis, nil
}

// fallback is the conservative default when inference failed or produced
// garbage: neutral complexity, original routing, no auto-response. The
// complexity row is still persisted so escalation has something to read.
func (a *Analyzer) fallback(ticket *store.Ticket) (*Analysis, error) {
	if _, err := a.store.SaveComplexityScore(&store.ComplexityScore{
		TicketID:  ticket.ID,
		Score:     neutralComplexity,
		Rationale: "analysis unavailable, neutral default",
	}); err != nil {
		return nil, err
	}
	return &Analysis{
		TicketID:          ticket.ID,
		Source:            SourceFallback,
		SuggestedCategory: ticket.Category,
		SuggestedPriority: ticket.Priority,
		ComplexityScore:   neutralComplexity,
	}, nil
}

func (a *Analyzer) emitComment(ticketID int64, body string) error {
	_, err := a.store.AddComment(&store.Comment{
		TicketID: ticketID,
		AuthorID: "deskhive",
		Body:     body,
	})
	if err != nil {
		return fmt.Errorf("emit response comment: %w", err)
	}
	return nil
}
