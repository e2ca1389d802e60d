package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"keuanganku/internal/core"
	"keuanganku/internal/storage"
)

// SummaryService computes interval aggregates over the transaction store.
type SummaryService struct {
	storage *storage.SQLiteRepository
}

func NewSummaryService(storage *storage.SQLiteRepository) *SummaryService {
	return &SummaryService{storage: storage}
}

// Summarize totals the interval. Balance is income minus expense and may go
// negative. The category breakdown covers expenses only.
func (s *SummaryService) Summarize(ctx context.Context, start, end time.Time) (core.Summary, error) {
	income, err := s.storage.SumByKind(ctx, core.KindIncome, start, end)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum income: %w", err)
	}

	expense, err := s.storage.SumByKind(ctx, core.KindExpense, start, end)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum expense: %w", err)
	}

	byCategory, err := s.storage.SumByCategory(ctx, start, end)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum by category: %w", err)
	}

	return core.Summary{
		Start:      start,
		End:        end,
		Income:     income,
		Expense:    expense,
		Balance:    income.Sub(expense),
		ByCategory: byCategory,
	}, nil
}

// SummarizeForPeriod resolves a named period against now and summarizes it,
// deriving the average daily expense from the period's nominal day count.
func (s *SummaryService) SummarizeForPeriod(ctx context.Context, period core.Period, now time.Time) (core.PeriodSummary, error) {
	start, end, err := period.Resolve(now)
	if err != nil {
		return core.PeriodSummary{}, err
	}

	summary, err := s.Summarize(ctx, start, end)
	if err != nil {
		return core.PeriodSummary{}, err
	}

	days := decimal.NewFromInt(int64(period.Days(now)))

	return core.PeriodSummary{
		Summary:       summary,
		Period:        period,
		AveragePerDay: summary.Expense.Div(days),
	}, nil
}
