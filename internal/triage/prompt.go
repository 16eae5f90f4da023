package triage

import (
	"fmt"
	"strings"

	"github.com/deskhive/deskhive/internal/store"
)

const systemPrompt = `You are a helpdesk triage assistant. Analyze the ticket and respond with a single JSON object, no prose, using exactly these fields:
{
  "key_issues": ["..."],
  "suggested_category": "...",
  "suggested_priority": "low|medium|high|urgent",
  "complexity_score": 0-100,
  "required_expertise": ["..."],
  "estimated_hours": 0.0,
  "auto_response": "customer-facing answer, or empty string if you cannot answer reliably",
  "confidence": 0.0-1.0
}
Only include an auto_response you would be comfortable sending to a customer unedited.`

// buildPrompt composes the analysis prompt from the ticket's public fields
// only. Comments and requester details stay out so the generated answer is
// safe to share via the answer cache.
func buildPrompt(t *store.Ticket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", t.Title)
	fmt.Fprintf(&b, "Description: %s\n", t.Description)
	if t.Category != "" {
		fmt.Fprintf(&b, "Current category: %s\n", t.Category)
	}
	if t.Priority != "" {
		fmt.Fprintf(&b, "Current priority: %s\n", t.Priority)
	}
	return b.String()
}

// cacheQuestion is the cache key text for a ticket: the same fields the
// prompt uses, so two tickets asking the same thing share an entry.
func cacheQuestion(t *store.Ticket) string {
	return strings.TrimSpace(t.Title + "\n" + t.Description)
}

// estimateTokens is the rough chars/4 heuristic used for admission checks.
// The ledger records actual counts reported by the backend afterwards.
func estimateTokens(text string) int {
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
