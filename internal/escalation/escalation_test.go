package escalation

import (
	"testing"

	"github.com/deskhive/deskhive/internal/store"
)

func ticket(category, title string) *store.Ticket {
	return &store.Ticket{ID: 1, Title: title, Description: "details", Category: category, Priority: "medium"}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	rules := []store.EscalationRule{
		{ID: 1, Name: "security", Priority: 10, Categories: []string{"security"}, TargetTeam: "sec-team", Enabled: true},
		{ID: 2, Name: "catch-all", Priority: 1, MinComplexity: 10, TargetTeam: "tier2", Enabled: true},
	}

	out := Evaluate(ticket("security", "breach"), 50, rules, 90, "fallback")
	if !out.Escalate || out.TargetTeam != "sec-team" {
		t.Fatalf("outcome = %+v, want sec-team", out)
	}
	if out.RuleID != 1 {
		t.Errorf("rule id = %d, want 1", out.RuleID)
	}
}

func TestMinComplexityGate(t *testing.T) {
	rules := []store.EscalationRule{
		{ID: 1, Name: "hard", Priority: 5, MinComplexity: 70, TargetTeam: "tier3", Enabled: true},
	}

	if out := Evaluate(ticket("general", "t"), 69, rules, 0, ""); out.Escalate {
		t.Errorf("complexity 69 should not match min 70: %+v", out)
	}
	if out := Evaluate(ticket("general", "t"), 70, rules, 0, ""); !out.Escalate {
		t.Error("complexity 70 should match min 70")
	}
}

func TestKeywordMatchCaseInsensitive(t *testing.T) {
	rules := []store.EscalationRule{
		{ID: 1, Name: "outage", Priority: 5, Keywords: []string{"OUTAGE", "down"}, TargetTeam: "oncall", Enabled: true},
	}

	out := Evaluate(ticket("general", "Production outage in eu-west"), 10, rules, 0, "")
	if !out.Escalate || out.TargetTeam != "oncall" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestComplexityCeilingFallback(t *testing.T) {
	out := Evaluate(ticket("general", "t"), 95, nil, 90, "senior-support")
	if !out.Escalate {
		t.Fatal("ceiling should force escalation with zero rules")
	}
	if out.TargetTeam != "senior-support" || out.RuleID != 0 {
		t.Errorf("outcome = %+v", out)
	}
}

func TestNoMatchNoEscalation(t *testing.T) {
	rules := []store.EscalationRule{
		{ID: 1, Name: "billing", Priority: 5, Categories: []string{"billing"}, TargetTeam: "finance", Enabled: true},
	}
	out := Evaluate(ticket("general", "simple question"), 20, rules, 90, "fallback")
	if out.Escalate {
		t.Errorf("outcome = %+v, want none", out)
	}
}

func TestDisabledRuleSkipped(t *testing.T) {
	rules := []store.EscalationRule{
		{ID: 1, Name: "off", Priority: 10, TargetTeam: "nowhere", Enabled: false},
	}
	if out := Evaluate(ticket("general", "t"), 50, rules, 0, ""); out.Escalate {
		t.Errorf("disabled rule matched: %+v", out)
	}
}
