package core

// Predefined category labels offered to callers. These are advisory: the
// store keeps category as free text with no foreign key, so records with
// labels outside these lists are still accepted.

func IncomeCategories() []string {
	return []string{
		"Gaji",
		"Bonus",
		"Investasi",
		"Freelance",
		"Hadiah",
		"Penjualan",
		"Lainnya",
	}
}

func ExpenseCategories() []string {
	return []string{
		"Makanan",
		"Transportasi",
		"Hiburan",
		"Belanja",
		"Kesehatan",
		"Pendidikan",
		"Tagihan",
		"Pulsa/Internet",
		"Pajak",
		"Donasi",
		"Lainnya",
	}
}
