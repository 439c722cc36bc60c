package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrencyIDR memformat nilai ke format Rupiah dengan pemisah ribuan.
// Contoh: 1250000 -> "Rp 1.250.000", 15000.5 -> "Rp 15.000,50"
func FormatCurrencyIDR(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	integer := int64(amount)
	cents := int64(math.Round((amount - float64(integer)) * 100))
	if cents == 100 {
		integer++
		cents = 0
	}

	digits := fmt.Sprintf("%d", integer)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	formatted := "Rp " + strings.Join(groups, ".")
	if cents > 0 {
		formatted = fmt.Sprintf("%s,%02d", formatted, cents)
	}
	if negative {
		formatted = "-" + formatted
	}
	return formatted
}
