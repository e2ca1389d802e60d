package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary aggregates an interval: totals, balance and the per-category
// expense breakdown. Balance may be negative; no clamping.
type Summary struct {
	Start      time.Time
	End        time.Time
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Balance    decimal.Decimal
	ByCategory map[string]decimal.Decimal
}

// PeriodSummary is a Summary resolved from a named period, carrying the
// average daily expense over the period's nominal length.
type PeriodSummary struct {
	Summary
	Period        Period
	AveragePerDay decimal.Decimal
}
