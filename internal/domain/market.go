package domain

import "github.com/shopspring/decimal"

// PriceMap latest price per instrument; partial (delta) or total (snapshot).
type PriceMap map[Instrument]decimal.Decimal

// Clone returns an independent copy.
func (m PriceMap) Clone() PriceMap {
	out := make(PriceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// HistorySeries ordered price samples for one instrument, oldest first.
type HistorySeries []decimal.Decimal

// Clone returns an independent copy.
func (s HistorySeries) Clone() HistorySeries {
	if s == nil {
		return nil
	}
	out := make(HistorySeries, len(s))
	copy(out, s)
	return out
}

// Last returns the newest sample.
func (s HistorySeries) Last() (decimal.Decimal, bool) {
	if len(s) == 0 {
		return decimal.Zero, false
	}
	return s[len(s)-1], true
}

// ChartView series of the selected instrument with derived overlays.
type ChartView struct {
	Instrument Instrument      `json:"ticker"`
	Samples    HistorySeries   `json:"history"`
	EMA        HistorySeries   `json:"ema,omitempty"`
	RSI        decimal.Decimal `json:"rsi"`
	HasRSI     bool            `json:"has_rsi"`
}
