package triage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/faqcache"
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
		Text:         f.text,
		FinishReason: "stop",
		Usage:        provider.Usage{InputTokens: 200, OutputTokens: 100, TotalTokens: 300},
	}, nil
}

func (f *fakeBackend) DefaultModel() string { return "test-model" }

const goodOutput = `{
  "key_issues": ["password reset email not delivered"],
  "suggested_category": "account",
  "suggested_priority": "high",
  "complexity_score": 35,
  "required_expertise": ["email"],
  "estimated_hours": 0.5,
  "auto_response": "Please check your spam folder and confirm your registered address; we have re-sent the reset email.",
  "confidence": 0.82
}`

func testEnv(t *testing.T, backend *fakeBackend) (*Analyzer, *store.Store, *ledger.Ledger) {
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
	cache := faqcache.New(s, nil)
	model := config.ModelConfig{Name: "openai/test-model", MaxOutputTokens: 500, Temperature: 0.2}
	return NewAnalyzer(s, s, gov, cache, led, backend, pricing, model, nil), s, led
}

func createTicket(t *testing.T, s *store.Store) *store.Ticket {
	t.Helper()
	ticket, err := s.CreateTicket(&store.Ticket{
		Title:       "Cannot log in",
		Description: "Password reset email never arrives",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	return ticket
}

func TestAnalyzeConfidentResponseApplied(t *testing.T) {
	backend := &fakeBackend{text: goodOutput}
	a, s, led := testEnv(t, backend)
	ticket := createTicket(t, s)

	analysis, err := a.Analyze(context.Background(), ticket.ID, "caller")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !analysis.Applied {
		t.Fatal("confidence 0.82 should apply the response")
	}
	if analysis.ComplexityScore != 35 || analysis.SuggestedCategory != "account" {
		t.Errorf("analysis = %+v", analysis)
	}

	// Exactly one complexity row.
	score, _ := s.LatestComplexityScore(ticket.ID)
	if score == nil || score.Score != 35 {
		t.Fatalf("complexity = %+v", score)
	}

	// Applied response persisted and emitted as a comment.
	ar, _ := s.GetAppliedAutoResponse(ticket.ID)
	if ar == nil || ar.Confidence != 0.82 {
		t.Fatalf("applied response = %+v", ar)
	}
	comments, _ := s.ListComments(ticket.ID)
	if len(comments) != 1 || comments[0].AuthorID != "deskhive" {
		t.Fatalf("comments = %+v", comments)
	}

	// Usage recorded with confirmed token counts.
	entries, _ := led.ListRecent(10)
	if len(entries) != 1 || entries[0].InputTokens != 200 {
		t.Fatalf("ledger = %+v", entries)
	}
}

func TestAnalyzeSecondIdenticalQuestionHitsCache(t *testing.T) {
	backend := &fakeBackend{text: goodOutput}
	a, s, _ := testEnv(t, backend)

	first := createTicket(t, s)
	if _, err := a.Analyze(context.Background(), first.ID, "caller"); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("backend calls = %d, want 1", backend.calls)
	}

	second := createTicket(t, s)
	analysis, err := a.Analyze(context.Background(), second.ID, "caller")
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}
	if backend.calls != 1 {
		t.Errorf("backend calls = %d, cache hit must not invoke inference", backend.calls)
	}
	if analysis.Source != SourceCache || !analysis.Applied {
		t.Errorf("analysis = %+v, want applied cache hit", analysis)
	}
}

func TestAnalyzeLowConfidenceStoredNotApplied(t *testing.T) {
	lowConfidence := `{"complexity_score": 60, "auto_response": "This might be related to your mail provider blocking our messages somehow.", "confidence": 0.4}`
	backend := &fakeBackend{text: lowConfidence}
	a, s, _ := testEnv(t, backend)
	ticket := createTicket(t, s)

	analysis, err := a.Analyze(context.Background(), ticket.ID, "caller")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Applied {
		t.Fatal("confidence 0.4 must not apply")
	}
	if ar, _ := s.GetAppliedAutoResponse(ticket.ID); ar != nil {
		t.Fatalf("applied response exists: %+v", ar)
	}
	if comments, _ := s.ListComments(ticket.ID); len(comments) != 0 {
		t.Error("unapplied response must not emit a comment")
	}
}

func TestAnalyzeMalformedOutputFallsBack(t *testing.T) {
	backend := &fakeBackend{text: "I think this ticket is about email. Good luck!"}
	a, s, _ := testEnv(t, backend)
	ticket := createTicket(t, s)

	analysis, err := a.Analyze(context.Background(), ticket.ID, "caller")
	if err != nil {
		t.Fatalf("Analyze must not fail on malformed output: %v", err)
	}
	if analysis.Source != SourceFallback || analysis.ComplexityScore != neutralComplexity {
		t.Errorf("analysis = %+v, want neutral fallback", analysis)
	}
	if analysis.SuggestedCategory != ticket.Category {
		t.Errorf("category changed: %s", analysis.SuggestedCategory)
	}
	if analysis.AutoResponse != "" {
		t.Error("fallback must not carry an auto-response")
	}
}

func TestAnalyzeBackendErrorFallsBack(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connect: refused")}
	a, s, led := testEnv(t, backend)
	ticket := createTicket(t, s)

	analysis, err := a.Analyze(context.Background(), ticket.ID, "caller")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Source != SourceFallback {
		t.Errorf("source = %s", analysis.Source)
	}
	// No confirmed cost: ledger stays empty.
	if entries, _ := led.ListRecent(10); len(entries) != 0 {
		t.Errorf("ledger = %+v, want empty", entries)
	}
}

func TestAnalyzeGovernorDenialBlocks(t *testing.T) {
	backend := &fakeBackend{text: goodOutput}
	a, s, led := testEnv(t, backend)

	settings := config.DefaultSettings()
	settings.MaxRequestsPerMinute = 1
	if err := s.SaveSettings(settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	first := createTicket(t, s)
	if _, err := a.Analyze(context.Background(), first.ID, "caller"); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}

	second, _ := s.CreateTicket(&store.Ticket{Title: "Other issue", Description: "Different question entirely"})
	analysis, err := a.Analyze(context.Background(), second.ID, "caller")
	if err != nil {
		t.Fatalf("blocked Analyze must still succeed: %v", err)
	}
	if !analysis.Blocked || analysis.BlockedReason != governor.ReasonMinuteLimit {
		t.Fatalf("analysis = %+v, want minute-limit block", analysis)
	}
	if analysis.ComplexityScore != neutralComplexity {
		t.Errorf("complexity = %d, want neutral", analysis.ComplexityScore)
	}
	if ar, _ := s.GetAppliedAutoResponse(second.ID); ar != nil {
		t.Error("blocked analysis must not persist a response")
	}
	if blocked, _ := led.ListBlocked(10); len(blocked) != 1 {
		t.Errorf("blocked calls = %d, want 1", len(blocked))
	}
	if backend.calls != 1 {
		t.Errorf("backend calls = %d, want 1", backend.calls)
	}
}

func TestParseAnalysisExtractsEmbeddedJSON(t *testing.T) {
	wrapped := "Here is the analysis:\n```json\n" + goodOutput + "\n```\nHope that helps."
	raw, err := parseAnalysis(wrapped)
	if err != nil {
		t.Fatalf("parseAnalysis: %v", err)
	}
	if raw.Confidence != 0.82 || raw.SuggestedPriority != "high" {
		t.Errorf("raw = %+v", raw)
	}
}

func TestParseAnalysisRejectsOutOfRange(t *testing.T) {
	if _, err := parseAnalysis(`{"complexity_score": 150, "confidence": 0.5}`); !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("err = %v, want ErrMalformedOutput", err)
	}
	if _, err := parseAnalysis(`{"complexity_score": 50, "confidence": 1.5}`); !errors.Is(err, ErrMalformedOutput) {
		t.Errorf("err = %v, want ErrMalformedOutput", err)
	}
}
