package domain

import "github.com/shopspring/decimal"

// moneyPlaces number of decimal places money values are presented with.
const moneyPlaces = 2

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}
