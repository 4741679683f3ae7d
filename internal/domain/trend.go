package domain

import "github.com/shopspring/decimal"

// TrendSignal instrument with the strongest recent positive momentum.
type TrendSignal struct {
	Instrument    Instrument      `json:"ticker"`
	PercentChange decimal.Decimal `json:"pct"`
}
