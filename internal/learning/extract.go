package learning

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/deskhive/deskhive/internal/store"
)

const extractionSystemPrompt = `You distill resolved helpdesk tickets into reusable knowledge articles. Respond with a single JSON object, no prose:
{
  "title": "short problem statement",
  "summary": "one-paragraph overview",
  "problem": "what the user experienced",
  "resolution_steps": ["step 1", "step 2"],
  "prevention": "how to avoid recurrence, or empty string",
  "tags": ["..."]
}`

var errMalformedExtraction = errors.New("malformed extraction output")

type rawExtraction struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Problem         string   `json:"problem"`
	ResolutionSteps []string `json:"resolution_steps"`
	Prevention      string   `json:"prevention"`
	Tags            []string `json:"tags"`
}

// buildExtractionPrompt lays out the ticket and its thread for the model.
// Internal comments are included; the resulting article is reviewed before
// publishing, which is where sensitive content gets caught.
func buildExtractionPrompt(t *store.Ticket, comments []store.Comment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket: %s\n", t.Title)
	fmt.Fprintf(&b, "Category: %s, priority: %s\n", t.Category, t.Priority)
	fmt.Fprintf(&b, "Description: %s\n\nThread:\n", t.Description)
	for _, c := range comments {
		fmt.Fprintf(&b, "- %s: %s\n", c.AuthorID, c.Body)
	}
	return b.String()
}

func parseExtraction(output string) (*rawExtraction, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", errMalformedExtraction)
	}
	var raw rawExtraction
	if err := json.Unmarshal([]byte(output[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedExtraction, err)
	}
	if strings.TrimSpace(raw.Title) == "" || len(raw.ResolutionSteps) == 0 {
		return nil, fmt.Errorf("%w: missing title or resolution steps", errMalformedExtraction)
	}
	return &raw, nil
}

// articleContent renders the extraction into the stored article body.
func articleContent(raw *rawExtraction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Problem\n%s\n\n## Resolution\n", raw.Problem)
	for i, step := range raw.ResolutionSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	if strings.TrimSpace(raw.Prevention) != "" {
		fmt.Fprintf(&b, "\n## Prevention\n%s\n", raw.Prevention)
	}
	return b.String()
}

// rawDraftContent is the fallback body when extraction is unavailable: the
// thread itself, lightly framed. A reviewer turns it into a real article.
func rawDraftContent(t *store.Ticket, comments []store.Comment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Problem\n%s\n\n## Discussion (unprocessed)\n", t.Description)
	for _, c := range comments {
		fmt.Fprintf(&b, "- %s: %s\n", c.AuthorID, c.Body)
	}
	return b.String()
}
