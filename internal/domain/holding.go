package domain

import "github.com/shopspring/decimal"

// Holding position in one instrument. Quantity and AverageCost are authoritative and come
// only from the account snapshot; CurrentPrice and Unrealized are derived.
type Holding struct {
	Instrument   Instrument      `json:"ticker"`
	Quantity     int64           `json:"qty"`
	AverageCost  decimal.Decimal `json:"avg_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Unrealized   decimal.Decimal `json:"unrealized"`
}

// PnL calculates unrealized profit and loss at the given price, rounded to cents.
func (h Holding) PnL(price decimal.Decimal) decimal.Decimal {
	return Round2(price.Sub(h.AverageCost).Mul(decimal.NewFromInt(h.Quantity)))
}

// Revalue returns a copy of the holding marked at price.
func (h Holding) Revalue(price decimal.Decimal) Holding {
	h.CurrentPrice = price
	h.Unrealized = h.PnL(price)
	return h
}
