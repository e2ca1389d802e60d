package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"keuanganku/internal/core"
)

func sampleRecords() []core.Transaction {
	occurred := time.Date(2024, time.March, 15, 12, 30, 0, 0, time.UTC)
	return []core.Transaction{
		{
			ID:         "t1",
			Title:      "Gaji bulanan",
			Amount:     decimal.NewFromInt(5000000),
			Kind:       core.KindIncome,
			Category:   "Gaji",
			OccurredAt: occurred,
			Synced:     true,
		},
		{
			ID:          "t2",
			Title:       "Makan, lalu kopi",
			Description: "warung \"Bu Tini\"",
			Amount:      decimal.NewFromInt(35000),
			Kind:        core.KindExpense,
			Category:    "Makanan",
			OccurredAt:  occurred,
		},
	}
}

func TestDocumentEmpty(t *testing.T) {
	if _, err := Document(nil, time.Now()); !errors.Is(err, core.ErrEmptyExport) {
		t.Fatalf("expected ErrEmptyExport, got %v", err)
	}
}

func TestDocumentLayout(t *testing.T) {
	exportedAt := time.Date(2024, time.March, 16, 8, 0, 0, 0, time.UTC)
	data, err := Document(sampleRecords(), exportedAt)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)

	if !strings.HasPrefix(body, "\uFEFF") {
		t.Error("document must start with a UTF-8 BOM")
	}

	lines := strings.Split(strings.TrimPrefix(body, "\uFEFF"), "\n")
	if lines[0] != "No,Tanggal,Judul Transaksi,Kategori,Tipe,Jumlah (Rp),Keterangan,Status Sinkronisasi" {
		t.Errorf("unexpected header: %q", lines[0])
	}

	if !strings.HasPrefix(lines[1], "1,15/03/2024 12:30,Gaji bulanan,Gaji,Pemasukan,") {
		t.Errorf("unexpected first row: %q", lines[1])
	}
	if !strings.Contains(lines[1], "Tersinkronisasi") {
		t.Errorf("synced row must be labeled Tersinkronisasi: %q", lines[1])
	}
	if !strings.Contains(lines[2], "Belum Sinkron") {
		t.Errorf("unsynced row must be labeled Belum Sinkron: %q", lines[2])
	}

	// Fields holding commas or quotes come back quoted with quotes doubled
	if !strings.Contains(lines[2], `"Makan, lalu kopi"`) {
		t.Errorf("comma field must be quoted: %q", lines[2])
	}
	if !strings.Contains(lines[2], `"warung ""Bu Tini"""`) {
		t.Errorf("quote field must be escaped: %q", lines[2])
	}

	// Summary block: balance is income minus expense, exactly
	if !strings.Contains(body, "RINGKASAN") {
		t.Error("missing RINGKASAN block")
	}
	if !strings.Contains(body, `Total Pemasukan,"Rp5.000.000,00"`) {
		t.Errorf("missing income total in body:\n%s", body)
	}
	if !strings.Contains(body, `Total Pengeluaran,"Rp35.000,00"`) {
		t.Errorf("missing expense total in body:\n%s", body)
	}
	if !strings.Contains(body, `Saldo,"Rp4.965.000,00"`) {
		t.Errorf("missing balance in body:\n%s", body)
	}
	if !strings.Contains(body, "Jumlah Transaksi,2") {
		t.Error("missing transaction count")
	}

	// Metadata block
	if !strings.Contains(body, "Tanggal Ekspor,16/03/2024 08:00:00") {
		t.Error("missing export timestamp")
	}
	if !strings.Contains(body, "Aplikasi,KeuanganKu Personal Finance Manager") {
		t.Error("missing application name")
	}
	if !strings.Contains(body, "Versi,1.0") {
		t.Error("missing format version")
	}
}

func TestDocumentNegativeBalance(t *testing.T) {
	records := []core.Transaction{
		{
			ID:         "t1",
			Title:      "Belanja",
			Amount:     decimal.NewFromInt(20000),
			Kind:       core.KindExpense,
			Category:   "Belanja",
			OccurredAt: time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
	}
	data, err := Document(records, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `Saldo,"-Rp20.000,00"`) {
		t.Errorf("expected negative balance line in:\n%s", data)
	}
}

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.Zero, "Rp0,00"},
		{decimal.NewFromInt(500), "Rp500,00"},
		{decimal.NewFromInt(15000), "Rp15.000,00"},
		{decimal.NewFromInt(5000000), "Rp5.000.000,00"},
		{decimal.RequireFromString("1234.5"), "Rp1.234,50"},
		{decimal.NewFromInt(-20000), "-Rp20.000,00"},
	}
	for _, tc := range tests {
		if got := FormatRupiah(tc.in); got != tc.want {
			t.Errorf("FormatRupiah(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
