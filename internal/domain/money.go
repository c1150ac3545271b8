package domain

import "github.com/shopspring/decimal"

// Dollars formatea centavos como "$12.34" o "-$5.00".
func Dollars(cents int) string {
	d := decimal.New(int64(cents), -2)
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// CentsToDollars convierte centavos a decimal en dólares.
func CentsToDollars(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

// DollarsToCents convierte dólares a centavos redondeando al centavo.
func DollarsToCents(dollars float64) int {
	return int(decimal.NewFromFloat(dollars).Shift(2).Round(0).IntPart())
}
