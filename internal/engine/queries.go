package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"github.com/vadiminshakov/livefolio/internal/trend"
	"github.com/vadiminshakov/livefolio/pkg/indicators"
)

// Trending evaluates the trend detector over the current history. Nothing is cached.
func (e *Engine) Trending(ctx context.Context) (domain.TrendSignal, bool, error) {
	var (
		signal domain.TrendSignal
		found  bool
	)
	err := e.exec(ctx, func() {
		signal, found = trend.Detect(e.history, e.supported)
	})
	return signal, found, err
}

// History returns a copy of the instrument's series, empty when unknown.
func (e *Engine) History(ctx context.Context, instrument domain.Instrument) (domain.HistorySeries, error) {
	var series domain.HistorySeries
	err := e.exec(ctx, func() {
		series = e.history.Get(instrument)
	})
	return series, err
}

// Chart returns the selected instrument's series with EMA and RSI overlays when the series
// is long enough for them.
func (e *Engine) Chart(ctx context.Context) (domain.ChartView, error) {
	var (
		instrument domain.Instrument
		samples    domain.HistorySeries
	)
	err := e.exec(ctx, func() {
		instrument = e.selected
		samples = e.history.Get(instrument)
	})
	if err != nil {
		return domain.ChartView{}, err
	}

	chart := domain.ChartView{Instrument: instrument, Samples: samples}
	if ema, err := indicators.CalculateEMA(samples, e.emaPeriod); err == nil {
		chart.EMA = roundSeries(ema)
	}
	chart.RSI, chart.HasRSI = indicators.LatestRSI(samples, indicators.DefaultRSIPeriod)

	return chart, nil
}

func roundSeries(in []decimal.Decimal) domain.HistorySeries {
	out := make(domain.HistorySeries, len(in))
	for i, v := range in {
		out[i] = domain.Round2(v)
	}
	return out
}
