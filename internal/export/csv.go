// Package export turns a set of transactions into the CSV report format the
// mobile app shipped: BOM-prefixed UTF-8 with a data table, a summary block
// and a metadata block, plus a descriptive filename for the upload.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"keuanganku/internal/core"
)

const (
	appName       = "KeuanganKu Personal Finance Manager"
	formatVersion = "1.0"

	rowTimeFormat      = "02/01/2006 15:04"
	exportedTimeFormat = "02/01/2006 15:04:05"
)

var csvHeader = []string{
	"No", "Tanggal", "Judul Transaksi", "Kategori", "Tipe",
	"Jumlah (Rp)", "Keterangan", "Status Sinkronisasi",
}

// Document renders the CSV body for the given records, in input order.
// Fails with core.ErrEmptyExport before any formatting when records is empty.
func Document(records []core.Transaction, exportedAt time.Time) ([]byte, error) {
	if len(records) == 0 {
		return nil, core.ErrEmptyExport
	}

	var b strings.Builder

	// BOM keeps spreadsheet apps from mangling the encoding
	b.WriteString("\uFEFF")
	b.WriteString(strings.Join(csvHeader, ","))
	b.WriteString("\n")

	income := decimal.Zero
	expense := decimal.Zero

	for i, t := range records {
		kindLabel := "Pengeluaran"
		if t.Kind == core.KindIncome {
			kindLabel = "Pemasukan"
			income = income.Add(t.Amount)
		} else {
			expense = expense.Add(t.Amount)
		}

		syncLabel := "Belum Sinkron"
		if t.Synced {
			syncLabel = "Tersinkronisasi"
		}

		fields := []string{
			fmt.Sprintf("%d", i+1),
			t.OccurredAt.Format(rowTimeFormat),
			escapeField(t.Title),
			escapeField(t.Category),
			kindLabel,
			escapeField(FormatRupiah(t.Amount)),
			escapeField(t.Description),
			syncLabel,
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteString("\n")
	}

	balance := income.Sub(expense)

	b.WriteString("\n\n")
	b.WriteString("RINGKASAN\n")
	b.WriteString("=========\n")
	b.WriteString("Total Pemasukan," + escapeField(FormatRupiah(income)) + "\n")
	b.WriteString("Total Pengeluaran," + escapeField(FormatRupiah(expense)) + "\n")
	b.WriteString("Saldo," + escapeField(FormatRupiah(balance)) + "\n")
	b.WriteString(fmt.Sprintf("Jumlah Transaksi,%d\n", len(records)))

	b.WriteString("\n\n")
	b.WriteString("METADATA\n")
	b.WriteString("========\n")
	b.WriteString("Tanggal Ekspor," + exportedAt.Format(exportedTimeFormat) + "\n")
	b.WriteString("Aplikasi," + appName + "\n")
	b.WriteString("Versi," + formatVersion + "\n")

	return []byte(b.String()), nil
}

// escapeField applies standard CSV quoting to a single field: fields holding
// a comma, quote or newline are wrapped in quotes with inner quotes doubled.
func escapeField(value string) string {
	if strings.ContainsAny(value, ",\"\n\r") {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}

// FormatRupiah renders an amount the Indonesian way: dot-grouped thousands
// and a two-digit comma decimal, e.g. Rp15.000,00.
func FormatRupiah(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)

	intPart := fixed
	fracPart := "00"
	if dot := strings.LastIndexByte(fixed, '.'); dot >= 0 {
		intPart = fixed[:dot]
		fracPart = fixed[dot+1:]
	}

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	out := "Rp" + grouped.String() + "," + fracPart
	if neg {
		return "-" + out
	}
	return out
}
