package scheduler

import (
	"testing"
	"time"
)

func TestParseCronRejectsBadExpressions(t *testing.T) {
	bad := []string{
		"",
		"* * * *",
		"* * * * * *",
		"60 * * * *",
		"* 24 * * *",
		"* * 0 * *",
		"* * 32 * *",
		"* * * 13 *",
		"* * * * 7",
		"*/0 * * * *",
		"5/2 * * * *",
		"9-3 * * * *",
		"a * * * *",
		"1-b * * * *",
	}
	for _, expr := range bad {
		if _, err := ParseCron(expr); err == nil {
			t.Errorf("ParseCron(%q) accepted, want error", expr)
		}
	}
}

func TestCronMatches(t *testing.T) {
	cases := []struct {
		expr string
		at   time.Time
		want bool
	}{
		{"* * * * *", time.Date(2026, 8, 31, 14, 37, 0, 0, time.UTC), true},
		{"0 3 * * *", time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC), true},
		{"0 3 * * *", time.Date(2026, 8, 31, 3, 1, 0, 0, time.UTC), false},
		{"*/15 * * * *", time.Date(2026, 8, 31, 9, 45, 0, 0, time.UTC), true},
		{"*/15 * * * *", time.Date(2026, 8, 31, 9, 50, 0, 0, time.UTC), false},
		{"0-30/5 9-17 * * 1-5", time.Date(2026, 8, 31, 10, 15, 0, 0, time.UTC), true},
		{"0-30/5 9-17 * * 1-5", time.Date(2026, 8, 29, 10, 15, 0, 0, time.UTC), false},
		// 2026-08-31 is a Monday.
		{"0 0 * * 1", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), true},
		{"0 0 * * 0", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), false},
		{"30 6 1,15 * *", time.Date(2026, 9, 15, 6, 30, 0, 0, time.UTC), true},
		{"30 6 1,15 * *", time.Date(2026, 9, 14, 6, 30, 0, 0, time.UTC), false},
		{"0 0 1 1 *", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		c, err := ParseCron(tc.expr)
		if err != nil {
			t.Fatalf("ParseCron(%q): %v", tc.expr, err)
		}
		if got := c.Matches(tc.at); got != tc.want {
			t.Errorf("%q.Matches(%v) = %v, want %v", tc.expr, tc.at, got, tc.want)
		}
	}
}

func TestCronNext(t *testing.T) {
	from := time.Date(2026, 8, 31, 14, 37, 20, 0, time.UTC)
	cases := []struct {
		expr string
		want time.Time
	}{
		// Every minute: the next whole minute after the reference instant.
		{"* * * * *", time.Date(2026, 8, 31, 14, 38, 0, 0, time.UTC)},
		{"*/5 * * * *", time.Date(2026, 8, 31, 14, 40, 0, 0, time.UTC)},
		// Midnight daily rolls over into September.
		{"0 0 * * *", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		// The 03:00 slot already passed today.
		{"0 3 * * *", time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)},
		// First Sunday after Monday 2026-08-31.
		{"0 0 * * 0", time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)},
		// Month skip: January only.
		{"0 0 1 1 *", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		c, err := ParseCron(tc.expr)
		if err != nil {
			t.Fatalf("ParseCron(%q): %v", tc.expr, err)
		}
		if got := c.Next(from); !got.Equal(tc.want) {
			t.Errorf("%q.Next(%v) = %v, want %v", tc.expr, from, got, tc.want)
		}
	}
}

func TestCronNextAlreadyOnSchedule(t *testing.T) {
	c, err := ParseCron("30 12 * * *")
	if err != nil {
		t.Fatal(err)
	}
	// Next is strictly after t, even when t itself matches.
	at := time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC)
	want := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	if got := c.Next(at); !got.Equal(want) {
		t.Errorf("Next(%v) = %v, want %v", at, got, want)
	}
}

func TestCronNextUnreachableReturnsZero(t *testing.T) {
	// February 30 never exists.
	c, err := ParseCron("0 0 30 2 *")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Next(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)); !got.IsZero() {
		t.Errorf("Next for impossible date = %v, want zero", got)
	}
}
