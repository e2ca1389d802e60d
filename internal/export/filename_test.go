package export

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFilenamePatterns(t *testing.T) {
	income := decimal.NewFromInt(500000)
	expense := decimal.NewFromInt(150000)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  string
	}{
		{
			name:  "same day",
			start: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC),
			want:  "Laporan_Harian_15_Maret_2024_3_transaksi_35000000.csv",
		},
		{
			name:  "same month",
			start: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			want:  "Laporan_Bulanan_Maret_2024_3_transaksi_35000000.csv",
		},
		{
			name:  "same year",
			start: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
			want:  "Laporan_Periodik_05_Januari_2024_sampai_10_Juni_2024_3_transaksi_35000000.csv",
		},
		{
			name:  "cross year",
			start: time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
			want:  "Laporan_Keuangan_20231201_sampai_20240131_3_transaksi_35000000.csv",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Filename(tc.start, tc.end, 3, income, expense)
			if got != tc.want {
				t.Fatalf("Filename = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFilenameDeterministic(t *testing.T) {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	a := Filename(start, end, 10, decimal.NewFromInt(100), decimal.NewFromInt(50))
	b := Filename(start, end, 10, decimal.NewFromInt(100), decimal.NewFromInt(50))
	if a != b {
		t.Fatalf("same inputs produced %q and %q", a, b)
	}
}

func TestFilenameNegativeBalance(t *testing.T) {
	start := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	got := Filename(start, start, 1, decimal.Zero, decimal.NewFromInt(20000))
	if !strings.Contains(got, "-2000000") {
		t.Fatalf("deficit must keep its sign: %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := collapseWhitespace("a  b__c"); got != "a_b_c" {
		t.Fatalf("collapseWhitespace = %q", got)
	}
}
