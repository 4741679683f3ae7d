// Package trend picks the instrument with the strongest recent positive momentum.
package trend

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

// Lookback number of samples spanned by the momentum window.
const Lookback = 6

var hundred = decimal.NewFromInt(100)

// SeriesReader read access to per-instrument history.
type SeriesReader interface {
	Series(instrument domain.Instrument) domain.HistorySeries
}

// Detect evaluates the supported instruments in order and returns the one whose last sample
// rose the most against the sample Lookback-1 positions earlier. Instruments with too few
// samples or a zero base price are skipped. Ties go to the earlier instrument in the list.
// Returns false when no instrument has a positive change.
func Detect(history SeriesReader, supported []domain.Instrument) (domain.TrendSignal, bool) {
	var (
		best    domain.Instrument
		bestPct = decimal.Zero
		found   bool
	)

	for _, instrument := range supported {
		pct, ok := PercentChange(history.Series(instrument))
		if !ok {
			continue
		}
		if pct.GreaterThan(bestPct) {
			bestPct = pct
			best = instrument
			found = true
		}
	}

	if !found {
		return domain.TrendSignal{}, false
	}

	return domain.TrendSignal{Instrument: best, PercentChange: domain.Round2(bestPct)}, true
}

// PercentChange returns the unrounded change of the newest sample against the start of the window.
func PercentChange(series domain.HistorySeries) (decimal.Decimal, bool) {
	if len(series) < Lookback {
		return decimal.Zero, false
	}
	old := series[len(series)-Lookback]
	cur := series[len(series)-1]
	if old.IsZero() {
		return decimal.Zero, false
	}
	return cur.Sub(old).Div(old).Mul(hundred), true
}
