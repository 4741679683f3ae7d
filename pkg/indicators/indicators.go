// Package indicators computes chart overlays (EMA, RSI) over price series.
package indicators

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrNotEnoughData the series is shorter than the indicator's warmup.
var ErrNotEnoughData = errors.New("not enough data points")

// DefaultRSIPeriod lookback used for the chart RSI.
const DefaultRSIPeriod = 14

// CalculateEMA calculates the Exponential Moving Average for the given period.
// The result is shorter than the input by the warmup (period-1 samples).
func CalculateEMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, errors.Errorf("invalid EMA period %d", period)
	}
	if len(closes) < period {
		return nil, errors.Wrapf(ErrNotEnoughData, "EMA(%d): need %d, got %d", period, period, len(closes))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	out := helper.ChanToSlice(ema.Compute(helper.SliceToChan(decimalsToFloat64(closes))))

	return float64ToDecimals(out, decimal.Zero), nil
}

// CalculateRSI calculates the Relative Strength Index for the given period.
// A flat window has no gains or losses and reads as neutral 50.
func CalculateRSI(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if period < 1 {
		return nil, errors.Errorf("invalid RSI period %d", period)
	}
	if len(closes) < period+1 {
		return nil, errors.Wrapf(ErrNotEnoughData, "RSI(%d): need %d, got %d", period, period+1, len(closes))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	out := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(decimalsToFloat64(closes))))

	return float64ToDecimals(out, decimal.NewFromInt(50)), nil
}

// LatestRSI returns the newest RSI value rounded to 2 places.
func LatestRSI(closes []decimal.Decimal, period int) (decimal.Decimal, bool) {
	values, err := CalculateRSI(closes, period)
	if err != nil || len(values) == 0 {
		return decimal.Zero, false
	}
	return values[len(values)-1].Round(2), true
}

func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

// float64ToDecimals converts floats, substituting fallback for NaN and infinities.
func float64ToDecimals(floats []float64, fallback decimal.Decimal) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			result[i] = fallback
			continue
		}
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}
