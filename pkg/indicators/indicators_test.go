package indicators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(values ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestCalculateEMA_NotEnoughData(t *testing.T) {
	_, err := CalculateEMA(series(1, 2, 3), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, err = CalculateEMA(series(1, 2, 3), 0)
	assert.Error(t, err)
}

func TestCalculateEMA_FlatSeries(t *testing.T) {
	ema, err := CalculateEMA(series(100, 100, 100, 100, 100, 100, 100, 100), 5)
	require.NoError(t, err)
	require.NotEmpty(t, ema)
	for _, v := range ema {
		f, _ := v.Float64()
		assert.InDelta(t, 100.0, f, 0.0001)
	}
}

func TestCalculateRSI_NotEnoughData(t *testing.T) {
	_, err := CalculateRSI(series(1, 2, 3), 14)
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, ok := LatestRSI(series(1, 2, 3), 14)
	assert.False(t, ok)
}
