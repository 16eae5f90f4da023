package learning

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/governor"
	"github.com/deskhive/deskhive/internal/ledger"
	"github.com/deskhive/deskhive/internal/provider"
	"github.com/deskhive/deskhive/internal/store"
)

type fakeBackend struct {
	text  string
	err   error
	calls int
}

func (f *fakeBackend) Complete(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &provider.CompletionResponse{
		Text:  f.text,
		Usage: provider.Usage{InputTokens: 300, OutputTokens: 200, TotalTokens: 500},
	}, nil
}

func (f *fakeBackend) DefaultModel() string { return "test-model" }

const extractionOutput = `{
  "title": "Password reset emails blocked by spam filter",
  "summary": "Reset emails from the helpdesk domain were quarantined.",
  "problem": "Users never receive password reset emails.",
  "resolution_steps": ["Allowlist the helpdesk sending domain", "Re-send the reset email"],
  "prevention": "Monitor the quarantine for helpdesk domains.",
  "tags": ["email", "spam-filter"]
}`

func testEngine(t *testing.T, backend *fakeBackend) (*Engine, *store.Store, *ledger.Ledger) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	led := ledger.New(s.DB())
	pricing := governor.NewPriceTable(map[string]config.ModelPricing{
		"test-model": {InputPerMTokens: 1.0, OutputPerMTokens: 2.0},
	})
	gov := governor.New(led, pricing)
	model := config.ModelConfig{Name: "openai/test-model", MaxOutputTokens: 800}
	return NewEngine(s, s, gov, led, backend, pricing, model, nil), s, led
}

func resolvedTicket(t *testing.T, s *store.Store, comments ...string) *store.Ticket {
	t.Helper()
	ticket, err := s.CreateTicket(&store.Ticket{
		Title:       "Cannot receive reset email",
		Description: "Reset emails never arrive",
		Category:    "account",
		Status:      store.TicketResolved,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	for _, body := range comments {
		if _, err := s.AddComment(&store.Comment{TicketID: ticket.ID, AuthorID: "agent", Body: body}); err != nil {
			t.Fatalf("AddComment: %v", err)
		}
	}
	return ticket
}

func TestLearnFromCreatesDraft(t *testing.T) {
	backend := &fakeBackend{text: extractionOutput}
	e, s, led := testEngine(t, backend)
	ticket := resolvedTicket(t, s,
		"Checked the mail gateway, messages are quarantined.",
		"Allowlisted the domain, resolved now.")
	s.EnqueueLearning(ticket.ID)

	article, err := e.LearnFrom(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("LearnFrom: %v", err)
	}
	if article == nil || article.Status != store.ArticleDraft {
		t.Fatalf("article = %+v, want draft", article)
	}
	if article.Title != "Password reset emails blocked by spam filter" {
		t.Errorf("title = %q", article.Title)
	}
	if !strings.Contains(article.Content, "Allowlist the helpdesk sending domain") {
		t.Errorf("content missing resolution steps:\n%s", article.Content)
	}
	if len(article.SourceTicketIDs) != 1 || article.SourceTicketIDs[0] != ticket.ID {
		t.Errorf("source tickets = %v", article.SourceTicketIDs)
	}

	// Ticket category heuristic merged with model tags.
	joined := strings.Join(article.Tags, ",")
	if !strings.Contains(joined, "account") || !strings.Contains(joined, "spam-filter") {
		t.Errorf("tags = %v", article.Tags)
	}

	item, _ := s.GetLearningItem(ticket.ID)
	if item == nil || item.Status != store.LearnDone {
		t.Errorf("queue item = %+v, want done", item)
	}
	if entries, _ := led.ListRecent(10); len(entries) != 1 {
		t.Errorf("ledger = %+v", entries)
	}
}

func TestLearnFromThinThreadSkipped(t *testing.T) {
	backend := &fakeBackend{text: extractionOutput}
	e, s, _ := testEngine(t, backend)
	ticket := resolvedTicket(t, s, "only one comment, and it is resolved")
	s.EnqueueLearning(ticket.ID)

	_, err := e.LearnFrom(context.Background(), ticket.ID)
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("err = %v, want ErrNotEligible", err)
	}
	if backend.calls != 0 {
		t.Error("ineligible ticket must not consume an inference call")
	}
	item, _ := s.GetLearningItem(ticket.ID)
	if item == nil || item.Status != store.LearnDone {
		t.Errorf("queue item = %+v, want done (skipped)", item)
	}
}

func TestLearnFromNoResolutionLanguageSkipped(t *testing.T) {
	backend := &fakeBackend{text: extractionOutput}
	e, s, _ := testEngine(t, backend)
	ticket := resolvedTicket(t, s, "still looking into it", "escalating to tier 2")
	s.EnqueueLearning(ticket.ID)

	if _, err := e.LearnFrom(context.Background(), ticket.ID); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("err = %v, want ErrNotEligible", err)
	}
}

func TestLearnFromBackendFailureDraftsRaw(t *testing.T) {
	backend := &fakeBackend{err: errors.New("unavailable")}
	e, s, _ := testEngine(t, backend)
	ticket := resolvedTicket(t, s, "gateway quarantine issue", "allowlisted, fixed now")
	s.EnqueueLearning(ticket.ID)

	article, err := e.LearnFrom(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("LearnFrom: %v", err)
	}
	if article == nil || article.Status != store.ArticleDraft {
		t.Fatalf("article = %+v, want raw draft", article)
	}
	if !strings.Contains(article.Content, "gateway quarantine issue") {
		t.Errorf("raw content missing thread:\n%s", article.Content)
	}
	if !strings.Contains(strings.Join(article.Tags, ","), "needs-review") {
		t.Errorf("tags = %v, want needs-review", article.Tags)
	}
}

func TestLearnFromAlreadyClaimedIsNoop(t *testing.T) {
	backend := &fakeBackend{text: extractionOutput}
	e, s, _ := testEngine(t, backend)
	ticket := resolvedTicket(t, s, "a", "resolved it")
	s.EnqueueLearning(ticket.ID)
	s.ClaimLearningItem(ticket.ID)

	article, err := e.LearnFrom(context.Background(), ticket.ID)
	if err != nil || article != nil {
		t.Fatalf("claimed item should be a no-op, got %+v, %v", article, err)
	}
	if backend.calls != 0 {
		t.Error("no inference call for an item another sweep owns")
	}
}

func TestLearnFromUnresolvedTicketRejected(t *testing.T) {
	backend := &fakeBackend{text: extractionOutput}
	e, s, _ := testEngine(t, backend)
	ticket, _ := s.CreateTicket(&store.Ticket{Title: "t", Description: "d"})

	if _, err := e.LearnFrom(context.Background(), ticket.ID); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("err = %v, want ErrNotEligible", err)
	}
	if _, err := e.Enqueue(ticket.ID); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("Enqueue err = %v, want ErrNotEligible", err)
	}
}

func TestEnqueueThinThreadNeverQueued(t *testing.T) {
	backend := &fakeBackend{text: extractionOutput}
	e, s, _ := testEngine(t, backend)

	ticket := resolvedTicket(t, s, "rebooted the router, resolved")
	if _, err := e.Enqueue(ticket.ID); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("Enqueue err = %v, want ErrNotEligible", err)
	}
	if item, _ := s.GetLearningItem(ticket.ID); item != nil {
		t.Fatalf("queue item = %+v, one-comment ticket must never be enqueued", item)
	}

	noResolution := resolvedTicket(t, s, "tried a few things", "escalating upstream")
	if _, err := e.Enqueue(noResolution.ID); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("Enqueue err = %v, want ErrNotEligible", err)
	}
	if item, _ := s.GetLearningItem(noResolution.ID); item != nil {
		t.Errorf("queue item = %+v, thread without resolution language must not be enqueued", item)
	}
}

func TestLearnFromAutoLearnDisabled(t *testing.T) {
	backend := &fakeBackend{text: extractionOutput}
	e, s, _ := testEngine(t, backend)
	settings := config.DefaultSettings()
	settings.AutoLearnEnabled = false
	s.SaveSettings(settings)

	ticket := resolvedTicket(t, s, "a", "resolved")
	s.EnqueueLearning(ticket.ID)
	if _, err := e.LearnFrom(context.Background(), ticket.ID); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("err = %v, want ErrNotEligible", err)
	}
}

func TestLearnFromMalformedExtractionDraftsRaw(t *testing.T) {
	backend := &fakeBackend{text: "no json here"}
	e, s, _ := testEngine(t, backend)
	ticket := resolvedTicket(t, s, "a detail", "that worked, thanks")
	s.EnqueueLearning(ticket.ID)

	article, err := e.LearnFrom(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("LearnFrom: %v", err)
	}
	if article == nil {
		t.Fatal("malformed extraction must still draft raw")
	}
}

func TestSweepPicksUpMissedTickets(t *testing.T) {
	backend := &fakeBackend{text: extractionOutput}
	e, s, _ := testEngine(t, backend)
	sweeper := NewSweeper(e, s, config.LearningConfig{SweepBatchSize: 10}, nil)

	// Resolved before the worker was running: never enqueued.
	ticket := resolvedTicket(t, s, "quarantine", "allowlisted, fixed")

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	item, _ := s.GetLearningItem(ticket.ID)
	if item == nil || item.Status != store.LearnDone {
		t.Fatalf("queue item = %+v, want done after sweep", item)
	}
	articles, _ := s.ListArticles(store.ArticleDraft, 10)
	if len(articles) != 1 {
		t.Errorf("articles = %d, want 1", len(articles))
	}
}
