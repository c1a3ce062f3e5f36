// Package money форматирует суммы для отображения. Вычисления остаются в decimal.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RupeeSymbol — знак валюты для отчётов и интерфейса.
const RupeeSymbol = "₹"

// FormatINR форматирует сумму в виде ₹1,23,456.50 (индийская группировка разрядов).
func FormatINR(amount decimal.Decimal) string {
	sign := ""
	if amount.Round(2).IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	return sign + RupeeSymbol + GroupIndian(amount.StringFixed(2))
}

// Fixed возвращает сумму с двумя знаками после точки без символа валюты.
func Fixed(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// GroupIndian расставляет запятые в неотрицательном числе: последние три цифры,
// затем группы по две.
func GroupIndian(number string) string {
	intPart, frac, hasFrac := strings.Cut(number, ".")
	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(append(groups, tail), ",")
	}
	if hasFrac {
		return intPart + "." + frac
	}
	return intPart
}
