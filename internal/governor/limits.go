package governor

import (
	"github.com/deskhive/deskhive/internal/config"
	"github.com/deskhive/deskhive/internal/store"
)

// Hard ceilings for restricted accounts. An admin can set anything looser for
// normal accounts; restricted accounts are clamped to these at write time so
// the stored limits are always the effective ones.
const (
	RestrictedMaxTokensPerRequest  = 3000
	RestrictedMaxRequestsPerMinute = 3
	RestrictedMaxRequestsPerHour   = 30
	RestrictedMaxRequestsPerDay    = 100
	RestrictedDailyCostLimit       = 1.0
	RestrictedMonthlyCostLimit     = 10.0
)

// Limits are the effective per-caller limits for one admission check.
// Zero means unlimited for that dimension.
type Limits struct {
	MaxRequestsPerMinute int
	MaxRequestsPerHour   int
	MaxRequestsPerDay    int
	MaxTokensPerRequest  int
	DailyCostLimit       float64
	MonthlyCostLimit     float64
	Restricted           bool
}

// FromSettings derives caller limits from the admin settings snapshot.
func FromSettings(s config.Settings) Limits {
	l := Limits{
		MaxRequestsPerMinute: s.MaxRequestsPerMinute,
		MaxRequestsPerHour:   s.MaxRequestsPerHour,
		MaxRequestsPerDay:    s.MaxRequestsPerDay,
		MaxTokensPerRequest:  s.MaxTokensPerRequest,
		DailyCostLimit:       s.DailyCostLimit,
		MonthlyCostLimit:     s.MonthlyCostLimit,
		Restricted:           s.RestrictedAccount,
	}
	return Clamp(l)
}

// FromRow derives limits from a stored per-caller override row. A row beats
// the settings-derived defaults wholesale.
func FromRow(r *store.CostLimits) Limits {
	return Clamp(Limits{
		MaxRequestsPerMinute: r.MaxRequestsPerMinute,
		MaxRequestsPerHour:   r.MaxRequestsPerHour,
		MaxRequestsPerDay:    r.MaxRequestsPerDay,
		MaxTokensPerRequest:  r.MaxTokensPerRequest,
		DailyCostLimit:       r.DailyCostLimit,
		MonthlyCostLimit:     r.MonthlyCostLimit,
		Restricted:           r.Restricted,
	})
}

// Clamp enforces the restricted-account ceilings. Non-restricted limits pass
// through unchanged. Applied at write time (before persisting CostLimits) and
// again defensively when deriving Limits, so a row written by older code still
// clamps.
func Clamp(l Limits) Limits {
	if !l.Restricted {
		return l
	}
	l.MaxTokensPerRequest = minPositive(l.MaxTokensPerRequest, RestrictedMaxTokensPerRequest)
	l.MaxRequestsPerMinute = minPositive(l.MaxRequestsPerMinute, RestrictedMaxRequestsPerMinute)
	l.MaxRequestsPerHour = minPositive(l.MaxRequestsPerHour, RestrictedMaxRequestsPerHour)
	l.MaxRequestsPerDay = minPositive(l.MaxRequestsPerDay, RestrictedMaxRequestsPerDay)
	if l.DailyCostLimit <= 0 || l.DailyCostLimit > RestrictedDailyCostLimit {
		l.DailyCostLimit = RestrictedDailyCostLimit
	}
	if l.MonthlyCostLimit <= 0 || l.MonthlyCostLimit > RestrictedMonthlyCostLimit {
		l.MonthlyCostLimit = RestrictedMonthlyCostLimit
	}
	return l
}

// minPositive treats zero (unlimited) as looser than any ceiling.
func minPositive(v, ceiling int) int {
	if v <= 0 || v > ceiling {
		return ceiling
	}
	return v
}
