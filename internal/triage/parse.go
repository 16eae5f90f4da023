package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput marks inference output that failed structural
// validation. The analyzer recovers with conservative defaults; it never
// propagates this to the ticket flow.
var ErrMalformedOutput = errors.New("malformed inference output")

type rawAnalysis struct {
	KeyIssues         []string `json:"key_issues"`
	SuggestedCategory string   `json:"suggested_category"`
	SuggestedPriority string   `json:"suggested_priority"`
	ComplexityScore   float64  `json:"complexity_score"`
	RequiredExpertise []string `json:"required_expertise"`
	EstimatedHours    float64  `json:"estimated_hours"`
	AutoResponse      string   `json:"auto_response"`
	Confidence        float64  `json:"confidence"`
}

// parseAnalysis extracts and validates the JSON object from model output.
// Models wrap JSON in prose and code fences often enough that we scan for
// the outermost braces instead of unmarshalling the whole string.
func parseAnalysis(output string) (*rawAnalysis, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedOutput)
	}
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(output[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if raw.ComplexityScore < 0 || raw.ComplexityScore > 100 {
		return nil, fmt.Errorf("%w: complexity %v out of range", ErrMalformedOutput, raw.ComplexityScore)
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", ErrMalformedOutput, raw.Confidence)
	}
	raw.SuggestedPriority = normalizePriority(raw.SuggestedPriority)
	raw.AutoResponse = strings.TrimSpace(raw.AutoResponse)
	return &raw, nil
}

func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "low", "medium", "high", "urgent":
		return strings.ToLower(strings.TrimSpace(p))
	default:
		return ""
	}
}
