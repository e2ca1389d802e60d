package core

import (
	"errors"
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	for _, p := range Periods() {
		got, err := ParsePeriod(string(p))
		if err != nil || got != p {
			t.Fatalf("ParsePeriod(%q) = %q, %v", p, got, err)
		}
	}

	for _, bad := range []string{"", "week", "Today", "this  week", "last month"} {
		if _, err := ParsePeriod(bad); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("ParsePeriod(%q) expected ErrInvalidPeriod, got %v", bad, err)
		}
	}
}

func TestPeriodResolve(t *testing.T) {
	// Friday afternoon
	now := time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		period Period
		start  time.Time
	}{
		{PeriodToday, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)},
		// Sunday-start week: Friday is weekday 5, so back five days
		{PeriodThisWeek, time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC)},
		// month and year starts keep the time of day
		{PeriodThisMonth, time.Date(2024, time.March, 1, 14, 30, 0, 0, time.UTC)},
		{PeriodThisYear, time.Date(2024, time.January, 1, 14, 30, 0, 0, time.UTC)},
		{PeriodAll, time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		start, end, err := tc.period.Resolve(now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.period, err)
		}
		if !start.Equal(tc.start) {
			t.Errorf("%s: start = %v, want %v", tc.period, start, tc.start)
		}
		if !end.Equal(now) {
			t.Errorf("%s: end = %v, want now", tc.period, end)
		}
		if start.After(end) {
			t.Errorf("%s: start %v after end %v", tc.period, start, end)
		}
	}

	if _, _, err := Period("bogus").Resolve(now); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestPeriodResolveWeekOnSunday(t *testing.T) {
	// On a Sunday the week start is the same day, time carried over.
	now := time.Date(2024, time.March, 10, 9, 15, 0, 0, time.UTC)
	start, _, err := PeriodThisWeek.Resolve(now)
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(now) {
		t.Fatalf("week start on Sunday = %v, want %v", start, now)
	}
}

func TestPeriodDays(t *testing.T) {
	tests := []struct {
		period Period
		now    time.Time
		want   int
	}{
		{PeriodToday, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), 1},
		{PeriodThisWeek, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), 7},
		{PeriodThisMonth, time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC), 29}, // leap year
		{PeriodThisMonth, time.Date(2023, time.February, 10, 0, 0, 0, 0, time.UTC), 28},
		{PeriodThisMonth, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), 30},
		{PeriodThisYear, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 366},
		{PeriodThisYear, time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC), 365},
		{PeriodAll, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), 30},
	}

	for _, tc := range tests {
		if got := tc.period.Days(tc.now); got != tc.want {
			t.Errorf("%s at %v: days = %d, want %d", tc.period, tc.now, got, tc.want)
		}
	}
}
