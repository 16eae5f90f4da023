// Package escalation decides whether a ticket needs human routing. Evaluation
// is pure: rules in, outcome out, no I/O.
package escalation

import (
	"strings"

	"github.com/deskhive/deskhive/internal/store"
)

// Outcome of an escalation evaluation.
type Outcome struct {
	Escalate   bool
	TargetTeam string
	RuleID     int64
	RuleName   string
	Reason     string
}

// Evaluate checks a ticket against ordered rules. Rules must already be
// sorted by priority descending (store.ListEscalationRules does this); the
// first matching rule wins. If no rule matches but the complexity score is at
// or above the ceiling, the ticket escalates anyway to the fallback team, so
// a hard ticket can never slip through an empty or misconfigured rule set.
func Evaluate(ticket *store.Ticket, complexity int, rules []store.EscalationRule, complexityCeiling int, fallbackTeam string) Outcome {
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if matches(&r, ticket, complexity) {
			return Outcome{
				Escalate:   true,
				TargetTeam: r.TargetTeam,
				RuleID:     r.ID,
				RuleName:   r.Name,
				Reason:     "rule " + r.Name,
			}
		}
	}
	if complexityCeiling > 0 && complexity >= complexityCeiling {
		return Outcome{
			Escalate:   true,
			TargetTeam: fallbackTeam,
			Reason:     "complexity ceiling",
		}
	}
	return Outcome{}
}

// matches applies a rule's predicate. All configured conditions must hold;
// an unset condition (zero / empty) matches everything.
func matches(r *store.EscalationRule, ticket *store.Ticket, complexity int) bool {
	if r.MinComplexity > 0 && complexity < r.MinComplexity {
		return false
	}
	if len(r.Categories) > 0 && !containsFold(r.Categories, ticket.Category) {
		return false
	}
	if len(r.Keywords) > 0 && !anyKeyword(r.Keywords, ticket.Title+" "+ticket.Description) {
		return false
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

func anyKeyword(keywords []string, text string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
