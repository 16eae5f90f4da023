// Package scheduler runs registered jobs on cron schedules, with a host-wide
// run lock and per-category concurrency caps.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cron is a parsed 5-field cron expression (minute hour day month weekday).
// Each field is a bit set: bit N set means value N matches. Weekday follows
// time.Weekday, Sunday is 0.
type Cron struct {
	minute  uint64
	hour    uint64
	day     uint64
	month   uint64
	weekday uint64
}

type cronField struct {
	name   string
	lo, hi int
	dest   *uint64
}

// ParseCron parses a standard 5-field cron expression. Each field accepts
// "*", single values, ranges, comma lists, and "/step" on "*" or a range.
func ParseCron(expr string) (*Cron, error) {
	specs := strings.Fields(expr)
	if len(specs) != 5 {
		return nil, fmt.Errorf("cron: expected 5 fields, got %d", len(specs))
	}
	var c Cron
	fields := []cronField{
		{"minute", 0, 59, &c.minute},
		{"hour", 0, 23, &c.hour},
		{"day-of-month", 1, 31, &c.day},
		{"month", 1, 12, &c.month},
		{"day-of-week", 0, 6, &c.weekday},
	}
	for i, f := range fields {
		mask, err := fieldMask(specs[i], f.lo, f.hi)
		if err != nil {
			return nil, fmt.Errorf("cron: %s: %w", f.name, err)
		}
		*f.dest = mask
	}
	return &c, nil
}

// fieldMask builds the bit set for one field spec.
func fieldMask(spec string, lo, hi int) (uint64, error) {
	var mask uint64
	for _, term := range strings.Split(spec, ",") {
		body, stepStr, hasStep := strings.Cut(term, "/")
		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n < 1 {
				return 0, fmt.Errorf("bad step in %q", term)
			}
			step = n
		}
		from, to := lo, hi
		if body != "*" {
			first, second, isRange := strings.Cut(body, "-")
			v, err := strconv.Atoi(first)
			if err != nil {
				return 0, fmt.Errorf("bad value %q", term)
			}
			from, to = v, v
			if isRange {
				w, err := strconv.Atoi(second)
				if err != nil {
					return 0, fmt.Errorf("bad range %q", term)
				}
				to = w
			} else if hasStep {
				return 0, fmt.Errorf("step without range in %q", term)
			}
		}
		if from < lo || to > hi || from > to {
			return 0, fmt.Errorf("%q outside %d-%d", term, lo, hi)
		}
		for v := from; v <= to; v += step {
			mask |= 1 << uint(v)
		}
	}
	if mask == 0 {
		return 0, fmt.Errorf("empty field %q", spec)
	}
	return mask, nil
}

func bit(v int) uint64 { return 1 << uint(v) }

// Matches reports whether t falls on the schedule, at minute granularity.
func (c *Cron) Matches(t time.Time) bool {
	return c.minute&bit(t.Minute()) != 0 &&
		c.hour&bit(t.Hour()) != 0 &&
		c.day&bit(t.Day()) != 0 &&
		c.month&bit(int(t.Month())) != 0 &&
		c.weekday&bit(int(t.Weekday())) != 0
}

// Next returns the first scheduled time after t. It skips whole months, days,
// and hours that cannot match, and gives up two years out (zero time).
func (c *Cron) Next(t time.Time) time.Time {
	u := t.Add(time.Minute).Truncate(time.Minute)
	horizon := u.AddDate(2, 0, 0)
	for u.Before(horizon) {
		switch {
		case c.month&bit(int(u.Month())) == 0:
			u = time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, u.Location()).AddDate(0, 1, 0)
		case c.day&bit(u.Day()) == 0 || c.weekday&bit(int(u.Weekday())) == 0:
			u = time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, u.Location()).AddDate(0, 0, 1)
		case c.hour&bit(u.Hour()) == 0:
			u = time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), 0, 0, 0, u.Location()).Add(time.Hour)
		case c.minute&bit(u.Minute()) == 0:
			u = u.Add(time.Minute)
		default:
			return u
		}
	}
	return time.Time{}
}
