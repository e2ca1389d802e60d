package core

import (
	"fmt"
	"time"
)

const (
	PeriodToday     Period = "today"
	PeriodThisWeek  Period = "this week"
	PeriodThisMonth Period = "this month"
	PeriodThisYear  Period = "this year"
	PeriodAll       Period = "all"
)

// Period is a named shorthand for a date interval ending at "now".
type Period string

// Periods lists every valid token, in display order.
func Periods() []Period {
	return []Period{PeriodToday, PeriodThisWeek, PeriodThisMonth, PeriodThisYear, PeriodAll}
}

// ParsePeriod validates a raw token. Unknown tokens fail with ErrInvalidPeriod
// rather than falling through to an arbitrary range.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	switch p {
	case PeriodToday, PeriodThisWeek, PeriodThisMonth, PeriodThisYear, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Resolve maps the period to a half-open interval [start, end] where end is
// always now. Week boundaries start on Sunday. For "this month" and
// "this year" only the day fields reset; the time-of-day is carried over from
// now, matching how existing data was bucketed.
func (p Period) Resolve(now time.Time) (start, end time.Time, err error) {
	end = now
	loc := now.Location()

	switch p {
	case PeriodToday:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	case PeriodThisWeek:
		start = now.AddDate(0, 0, -int(now.Weekday()))
	case PeriodThisMonth:
		start = time.Date(now.Year(), now.Month(), 1,
			now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), loc)
	case PeriodThisYear:
		start = time.Date(now.Year(), time.January, 1,
			now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), loc)
	case PeriodAll:
		start = time.Date(1970, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(p))
	}

	return start, end, nil
}

// Days returns the nominal day count used for average-per-day figures:
// 1 for today, 7 for this week, the actual length of the current month or
// year, and a fixed 30 for "all".
func (p Period) Days(now time.Time) int {
	switch p {
	case PeriodToday:
		return 1
	case PeriodThisWeek:
		return 7
	case PeriodThisMonth:
		return time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	case PeriodThisYear:
		return time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location()).YearDay()
	default:
		return 30
	}
}
