package portfolio

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

// PriceReader read access to the latest prices.
type PriceReader interface {
	Get(instrument domain.Instrument) (decimal.Decimal, bool)
}

// Recompute marks every holding at the latest known price and rebuilds the total.
// A holding whose instrument has no price keeps its previous current price. Each holding's
// P/L is rounded to cents first, then the rounded values are summed and rounded again.
// The input view is not modified.
func Recompute(view domain.PortfolioView, prices PriceReader) domain.PortfolioView {
	holdings := make([]domain.Holding, len(view.Holdings))
	total := decimal.Zero

	for i, h := range view.Holdings {
		price, ok := prices.Get(h.Instrument)
		if !ok {
			price = h.CurrentPrice
		}
		holdings[i] = h.Revalue(price)
		total = total.Add(holdings[i].Unrealized)
	}

	view.Holdings = holdings
	view.Unrealized = domain.Round2(total)
	return view
}

// Reconciler keeps the derived view for the latest snapshot. Every update swaps in a
// freshly computed view, so the last processed event always wins without partial writes.
type Reconciler struct {
	view        domain.PortfolioView
	hasSnapshot bool
}

// NewReconciler starts from the empty portfolio.
func NewReconciler() *Reconciler {
	return &Reconciler{view: domain.EmptyPortfolio()}
}

// ApplySnapshot normalizes an authoritative snapshot and marks it at the current prices.
// A malformed snapshot leaves the previous view in place.
func (r *Reconciler) ApplySnapshot(raw []byte, prices PriceReader) (domain.PortfolioView, error) {
	normalized, err := Normalize(raw)
	if err != nil {
		return r.View(), err
	}

	r.view = Recompute(normalized, prices)
	r.hasSnapshot = true
	return r.View(), nil
}

// Reprice recomputes the current view after a price change.
func (r *Reconciler) Reprice(prices PriceReader) domain.PortfolioView {
	r.view = Recompute(r.view, prices)
	return r.View()
}

// View returns a copy of the current view.
func (r *Reconciler) View() domain.PortfolioView {
	return r.view.Clone()
}

// HasSnapshot reports whether any authoritative snapshot has been applied.
func (r *Reconciler) HasSnapshot() bool {
	return r.hasSnapshot
}
