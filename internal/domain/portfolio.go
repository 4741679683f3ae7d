package domain

import "github.com/shopspring/decimal"

// PortfolioView account state with live unrealized P/L.
type PortfolioView struct {
	Cash       decimal.Decimal `json:"cash"`
	Realized   decimal.Decimal `json:"realized"`
	Holdings   []Holding       `json:"holdings"`
	Unrealized decimal.Decimal `json:"unrealized"`
}

// EmptyPortfolio is the default state before any snapshot arrives.
func EmptyPortfolio() PortfolioView {
	return PortfolioView{
		Cash:       decimal.Zero,
		Realized:   decimal.Zero,
		Holdings:   []Holding{},
		Unrealized: decimal.Zero,
	}
}

// Clone returns a copy that shares no holdings slice with the receiver.
func (p PortfolioView) Clone() PortfolioView {
	holdings := make([]Holding, len(p.Holdings))
	copy(holdings, p.Holdings)
	p.Holdings = holdings
	return p
}

// Holding looks up the holding for an instrument.
func (p PortfolioView) Holding(instrument Instrument) (Holding, bool) {
	for _, h := range p.Holdings {
		if h.Instrument == instrument {
			return h, true
		}
	}
	return Holding{}, false
}

// PortfolioRecord bundles a journaled view with its WAL index.
type PortfolioRecord struct {
	Index uint64
	View  PortfolioView
}
