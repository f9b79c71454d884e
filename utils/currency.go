package utils

import (
	"fmt"
	"math"
)

// MaxAmountCents -> nilai terbesar yang muat di kolom decimal(10,2)
const MaxAmountCents int64 = 99_999_999_99

// ToCents mengubah harga ke satuan sen supaya penjumlahan total tidak kena error float.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// CheckedLineTotal -> harga satuan x quantity dalam sen, false kalau tidak muat di MaxAmountCents.
func CheckedLineTotal(unitPrice float64, quantity int) (int64, bool) {
	if quantity < 0 || unitPrice < 0 || unitPrice*100 > float64(MaxAmountCents) {
		return 0, false
	}
	cents := ToCents(unitPrice)
	if cents != 0 && int64(quantity) > MaxAmountCents/cents {
		return 0, false
	}
	return cents * int64(quantity), true
}

// AddAmount menjumlahkan dua nilai sen, false kalau melewati MaxAmountCents.
func AddAmount(total, line int64) (int64, bool) {
	if total < 0 || line < 0 || line > MaxAmountCents-total {
		return 0, false
	}
	return total + line, true
}

// FormatPrice formats an amount with a thousands separator and 2 decimals.
// Example: 1234.5 -> "1,234.50"
func FormatPrice(amount float64) string {
	cents := ToCents(amount)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	integer := cents / 100
	decimal := cents % 100

	integerStr := fmt.Sprintf("%d", integer)
	var out []byte
	for i, ch := range []byte(integerStr) {
		if i > 0 && (len(integerStr)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}

	return fmt.Sprintf("%s%s.%02d", sign, string(out), decimal)
}
