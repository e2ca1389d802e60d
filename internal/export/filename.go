package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var indonesianMonths = [...]string{
	time.January:   "Januari",
	time.February:  "Februari",
	time.March:     "Maret",
	time.April:     "April",
	time.May:       "Mei",
	time.June:      "Juni",
	time.July:      "Juli",
	time.August:    "Agustus",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "Desember",
}

// Filename builds the deterministic report name. The date descriptor depends
// on whether start and end fall on the same day, month or year (in that
// priority order); the transaction count and a currency-stripped balance
// figure follow, joined with underscores.
func Filename(start, end time.Time, count int, totalIncome, totalExpense decimal.Decimal) string {
	balance := totalIncome.Sub(totalExpense)

	countStr := fmt.Sprintf("%d_transaksi", count)
	balanceStr := stripCurrency(balance)

	var name string
	switch {
	case sameDay(start, end):
		name = fmt.Sprintf("Laporan_Harian_%s_%s_%s.csv",
			fullDate(start), countStr, balanceStr)
	case sameMonth(start, end):
		name = fmt.Sprintf("Laporan_Bulanan_%s_%s_%s.csv",
			monthYear(start), countStr, balanceStr)
	case start.Year() == end.Year():
		name = fmt.Sprintf("Laporan_Periodik_%s_sampai_%s_%s_%s.csv",
			fullDate(start), fullDate(end), countStr, balanceStr)
	default:
		name = fmt.Sprintf("Laporan_Keuangan_%s_sampai_%s_%s_%s.csv",
			start.Format("20060102"), end.Format("20060102"), countStr, balanceStr)
	}

	return collapseWhitespace(name)
}

// stripCurrency reduces the balance to bare digits (two decimals folded in),
// keeping the sign for deficits.
func stripCurrency(balance decimal.Decimal) string {
	s := balance.StringFixed(2)
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", "")
}

func fullDate(t time.Time) string {
	return fmt.Sprintf("%02d_%s_%d", t.Day(), indonesianMonths[t.Month()], t.Year())
}

func monthYear(t time.Time) string {
	return fmt.Sprintf("%s_%d", indonesianMonths[t.Month()], t.Year())
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// collapseWhitespace folds spaces into underscores and squeezes runs of
// underscores down to one.
func collapseWhitespace(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	return name
}
