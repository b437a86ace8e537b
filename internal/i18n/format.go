package i18n

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Amounts are grouped Russian-style in both UI languages.
var moneyPrinter = message.NewPrinter(language.Russian)

// FormatMoney renders a tenge amount with two decimals and digit grouping.
func FormatMoney(amount float64) string {
	return moneyPrinter.Sprintf("%.2f ₸", amount)
}

// FormatPercent renders a percentage with two decimals.
func FormatPercent(v float64) string {
	return moneyPrinter.Sprintf("%.2f%%", v)
}

// FormatQuantity renders a quantity with at most three decimals and no
// trailing zeros.
func FormatQuantity(v float64) string {
	v = math.Round(v*1000) / 1000
	return strconv.FormatFloat(v, 'f', -1, 64)
}
