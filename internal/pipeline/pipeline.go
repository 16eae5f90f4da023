// Package pipeline wires the triage, escalation, and learning components into
// the ticket lifecycle entry points.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deskhive/deskhive/internal/bus"
	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/escalation"
	"github.com/deskhive/deskhive/internal/learning"
	"github.com/deskhive/deskhive/internal/store"
	"github.com/deskhive/deskhive/internal/triage"
)

// fallbackTeam receives tickets escalated by the complexity ceiling when no
// rule matched.
const fallbackTeam = "senior-support"

type pipelineStore interface {
	GetTicket(id int64) (*store.Ticket, error)
	ListEscalationRules() ([]store.EscalationRule, error)
	SearchArticles(query string, limit int) ([]store.KnowledgeArticle, error)
	AddComment(c *store.Comment) (*store.Comment, error)
	IncrementArticleUsage(id string) error
}

// Result of handling a ticket-created event.
type Result struct {
	Analysis   *triage.Analysis
	Escalation escalation.Outcome
	// Suggestions are existing articles surfaced when analysis was blocked.
	Suggestions []store.KnowledgeArticle
}

// Pipeline is the request-path entry point. All operations degrade rather
// than fail: a ticket is never rejected because the AI layer had a bad day.
type Pipeline struct {
	store    pipelineStore
	settings config.SettingsProvider
	analyzer *triage.Analyzer
	engine   *learning.Engine
	sweeper  *learning.Sweeper
	events   *bus.EventBus
	logger   *slog.Logger
}

func New(
	s pipelineStore,
	settings config.SettingsProvider,
	analyzer *triage.Analyzer,
	engine *learning.Engine,
	sweeper *learning.Sweeper,
	events *bus.EventBus,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    s,
		settings: settings,
		analyzer: analyzer,
		engine:   engine,
		sweeper:  sweeper,
		events:   events,
		logger:   logger,
	}
}

// TicketCreated runs triage and escalation for a new ticket.
func (p *Pipeline) TicketCreated(ctx context.Context, ticketID int64, callerID string) (*Result, error) {
	analysis, err := p.analyzer.Analyze(ctx, ticketID, callerID)
	if err != nil {
		return nil, fmt.Errorf("analyze ticket %d: %w", ticketID, err)
	}
	result := &Result{Analysis: analysis}

	if analysis.Blocked {
		// Degraded path: surface existing knowledge by keyword instead.
		ticket, err := p.store.GetTicket(ticketID)
		if err != nil {
			return nil, err
		}
		suggestions, err := p.store.SearchArticles(ticket.Title, 3)
		if err != nil {
			p.logger.Warn("fallback article search failed", "ticket", ticketID, "error", err)
		}
		result.Suggestions = suggestions
		if len(suggestions) > 0 {
			if err := p.suggestArticles(ticketID, suggestions); err != nil {
				p.logger.Warn("suggestion comment failed", "ticket", ticketID, "error", err)
			}
			// Surfacing counts as usage regardless of later ratings.
			for _, art := range suggestions {
				if err := p.store.IncrementArticleUsage(art.ID); err != nil {
					p.logger.Warn("usage count failed", "article", art.ID, "error", err)
				}
			}
		}
	}

	if analysis.Applied {
		p.events.Publish(&bus.Event{
			Type:     bus.EventAutoResponseApplied,
			TicketID: ticketID,
			Detail:   map[string]any{"confidence": analysis.Confidence, "source": analysis.Source},
		})
	}

	ticket, err := p.store.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	rules, err := p.store.ListEscalationRules()
	if err != nil {
		return nil, fmt.Errorf("list escalation rules: %w", err)
	}
	settings, err := p.settings.Settings()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	outcome := escalation.Evaluate(ticket, analysis.ComplexityScore, rules,
		settings.ComplexityThreshold, fallbackTeam)
	result.Escalation = outcome
	if outcome.Escalate {
		p.logger.Info("ticket escalated", "ticket", ticketID,
			"team", outcome.TargetTeam, "reason", outcome.Reason)
		p.events.Publish(&bus.Event{
			Type:     bus.EventTicketEscalated,
			TicketID: ticketID,
			Team:     outcome.TargetTeam,
			Detail:   map[string]any{"reason": outcome.Reason, "complexity": analysis.ComplexityScore},
		})
	}
	return result, nil
}

// TicketResolved enqueues the ticket for learning and pokes the worker.
// Ineligible tickets are a no-op, not an error.
func (p *Pipeline) TicketResolved(ticketID int64) error {
	inserted, err := p.engine.Enqueue(ticketID)
	if err != nil {
		if errors.Is(err, learning.ErrNotEligible) {
			p.logger.Debug("resolved ticket not eligible", "ticket", ticketID, "reason", err)
			return nil
		}
		return err
	}
	if inserted && p.sweeper != nil {
		p.sweeper.Notify(ticketID)
	}
	return nil
}

func (p *Pipeline) suggestArticles(ticketID int64, articles []store.KnowledgeArticle) error {
	body := "Automated triage is temporarily unavailable. These existing articles may help:\n"
	for _, a := range articles {
		body += fmt.Sprintf("- %s: %s\n", a.Title, a.Summary)
	}
	_, err := p.store.AddComment(&store.Comment{
		TicketID:   ticketID,
		AuthorID:   "deskhive",
		Body:       body,
		IsInternal: true,
	})
	return err
}
