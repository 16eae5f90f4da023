// Package governor admits or denies inference calls before they spend money.
// It enforces per-caller request windows, a per-request token budget, and
// daily/monthly cost ceilings. Denials are advisory to the caller (degrade,
// don't crash) and every denial carries a machine-readable reason.
package governor

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Denial reasons. Stable strings, stored in blocked_calls rows.
const (
	ReasonMinuteLimit = "rate_limit_minute"
	ReasonHourLimit   = "rate_limit_hour"
	ReasonDayLimit    = "rate_limit_day"
	ReasonTokenBudget = "token_budget"
	ReasonDailyCost   = "cost_limit_daily"
	ReasonMonthlyCost = "cost_limit_monthly"
)

// ErrDenied marks a governor denial. Callers that can't inspect a Decision
// directly (the learning path) get it wrapped in a DeniedError.
var ErrDenied = errors.New("governor denied")

// DeniedError carries the denial details through an error chain.
type DeniedError struct {
	CallerID   string
	Reason     string
	RetryAfter time.Duration
}

func (e *DeniedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("governor denied %s: %s (retry after %s)", e.CallerID, e.Reason, e.RetryAfter)
	}
	return fmt.Sprintf("governor denied %s: %s", e.CallerID, e.Reason)
}

func (e *DeniedError) Unwrap() error { return ErrDenied }

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed       bool
	Reason        string
	RetryAfter    time.Duration
	EstimatedCost float64
}

// Err converts a denial into a DeniedError (nil when allowed).
func (d Decision) Err(callerID string) error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{CallerID: callerID, Reason: d.Reason, RetryAfter: d.RetryAfter}
}

// CostReader reports confirmed spend per caller. The usage ledger implements
// it.
type CostReader interface {
	DailyCost(callerID string) (float64, error)
	MonthlyCost(callerID string) (float64, error)
}

// Request describes one prospective inference call.
type Request struct {
	CallerID        string
	Model           string
	EstInputTokens  int
	EstOutputTokens int
}

type window struct {
	count   int
	resetAt time.Time
}

// roll resets the window lazily once its deadline has passed. No background
// timers; a caller idle past the deadline pays nothing until its next call.
func (w *window) roll(now time.Time, length time.Duration) {
	if !now.Before(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(length)
	}
}

type callerState struct {
	mu     sync.Mutex
	minute window
	hour   window
	day    window
}

// Governor is safe for concurrent use. Each caller is serialized on its own
// mutex so two concurrent requests from the same caller cannot both slip
// under a limit with one slot left.
type Governor struct {
	mu      sync.Mutex
	callers map[string]*callerState

	costs   CostReader
	pricing PriceTable
	now     func() time.Time
}

func New(costs CostReader, pricing PriceTable) *Governor {
	return &Governor{
		callers: make(map[string]*callerState),
		costs:   costs,
		pricing: pricing,
		now:     time.Now,
	}
}

func (g *Governor) caller(id string) *callerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.callers[id]
	if !ok {
		st = &callerState{}
		g.callers[id] = st
	}
	return st
}

// Admit runs the full admission sequence for one request. Window counters are
// consumed only when every check passes; a denial leaves all counters
// untouched.
func (g *Governor) Admit(req Request, limits Limits) (Decision, error) {
	est := g.pricing.Estimate(req.Model, req.EstInputTokens, req.EstOutputTokens)
	d := Decision{EstimatedCost: est}

	if limits.MaxTokensPerRequest > 0 &&
		req.EstInputTokens+req.EstOutputTokens > limits.MaxTokensPerRequest {
		d.Reason = ReasonTokenBudget
		return d, nil
	}

	// Cost ceilings read confirmed spend before taking any window slot, so a
	// cost denial never burns rate budget.
	if limits.DailyCostLimit > 0 {
		spent, err := g.costs.DailyCost(req.CallerID)
		if err != nil {
			return d, fmt.Errorf("read daily cost: %w", err)
		}
		if spent+est > limits.DailyCostLimit {
			d.Reason = ReasonDailyCost
			return d, nil
		}
	}
	if limits.MonthlyCostLimit > 0 {
		spent, err := g.costs.MonthlyCost(req.CallerID)
		if err != nil {
			return d, fmt.Errorf("read monthly cost: %w", err)
		}
		if spent+est > limits.MonthlyCostLimit {
			d.Reason = ReasonMonthlyCost
			return d, nil
		}
	}

	st := g.caller(req.CallerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	now := g.now()
	st.minute.roll(now, time.Minute)
	st.hour.roll(now, time.Hour)
	st.day.roll(now, 24*time.Hour)

	switch {
	case limits.MaxRequestsPerMinute > 0 && st.minute.count >= limits.MaxRequestsPerMinute:
		d.Reason = ReasonMinuteLimit
		d.RetryAfter = st.minute.resetAt.Sub(now)
	case limits.MaxRequestsPerHour > 0 && st.hour.count >= limits.MaxRequestsPerHour:
		d.Reason = ReasonHourLimit
		d.RetryAfter = st.hour.resetAt.Sub(now)
	case limits.MaxRequestsPerDay > 0 && st.day.count >= limits.MaxRequestsPerDay:
		d.Reason = ReasonDayLimit
		d.RetryAfter = st.day.resetAt.Sub(now)
	default:
		st.minute.count++
		st.hour.count++
		st.day.count++
		d.Allowed = true
	}
	return d, nil
}

// WindowCounts reports current consumption for the status view. Windows are
// rolled first so stale counts from an idle period don't show.
func (g *Governor) WindowCounts(callerID string) (minute, hour, day int) {
	st := g.caller(callerID)
	st.mu.Lock()
	defer st.mu.Unlock()
	now := g.now()
	st.minute.roll(now, time.Minute)
	st.hour.roll(now, time.Hour)
	st.day.roll(now, 24*time.Hour)
	return st.minute.count, st.hour.count, st.day.count
}
