package portfolio

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

func TestNormalize_LegacyMap(t *testing.T) {
	view, err := Normalize([]byte(`{"cash": 1000, "holdings": {"GOOG": 5}}`))
	require.NoError(t, err)

	require.Len(t, view.Holdings, 1)
	h := view.Holdings[0]
	assert.Equal(t, domain.Instrument("GOOG"), h.Instrument)
	assert.Equal(t, int64(5), h.Quantity)
	assert.True(t, h.AverageCost.IsZero())
	assert.True(t, h.CurrentPrice.IsZero())
	assert.True(t, h.Unrealized.IsZero())
	assert.True(t, view.Unrealized.IsZero())
	assert.Equal(t, "1000", view.Cash.String())
}

func TestNormalize_LegacyMapKeepsWireOrder(t *testing.T) {
	view, err := Normalize([]byte(`{"holdings": {"TSLA": 1, "AMZN": "2", "GOOG": null}}`))
	require.NoError(t, err)

	require.Len(t, view.Holdings, 3)
	assert.Equal(t, domain.Instrument("TSLA"), view.Holdings[0].Instrument)
	assert.Equal(t, domain.Instrument("AMZN"), view.Holdings[1].Instrument)
	assert.Equal(t, int64(2), view.Holdings[1].Quantity)
	assert.Equal(t, domain.Instrument("GOOG"), view.Holdings[2].Instrument)
	assert.Equal(t, int64(0), view.Holdings[2].Quantity)
}

func TestNormalize_RichSequence(t *testing.T) {
	raw := `{
		"cash": "250.5",
		"realized": -12.25,
		"holdings": [
			{"ticker": "GOOG", "qty": 10, "avg_cost": 100, "current_price": 115, "unrealized": 150},
			{"ticker": "TSLA", "qty": 2}
		]
	}`
	view, err := Normalize([]byte(raw))
	require.NoError(t, err)

	require.Len(t, view.Holdings, 2)
	assert.Equal(t, "100", view.Holdings[0].AverageCost.String())
	assert.Equal(t, "115", view.Holdings[0].CurrentPrice.String())
	assert.True(t, view.Holdings[1].AverageCost.IsZero())
	assert.True(t, view.Holdings[1].CurrentPrice.IsZero())
	assert.Equal(t, "150", view.Unrealized.String(), "missing total is the sum of holdings")
	assert.Equal(t, "250.5", view.Cash.String())
	assert.Equal(t, "-12.25", view.Realized.String())
}

func TestNormalize_ProvidedTotalWins(t *testing.T) {
	view, err := Normalize([]byte(`{"unrealized": 7, "holdings": [{"ticker": "GOOG", "qty": 1, "unrealized": 3}]}`))
	require.NoError(t, err)
	assert.Equal(t, "7", view.Unrealized.String())
}

func TestNormalize_DefaultsAndGarbageFields(t *testing.T) {
	view, err := Normalize([]byte(`{"cash": "abc", "holdings": [42, {"ticker": "GOOG", "qty": "x"}]}`))
	require.NoError(t, err)

	assert.True(t, view.Cash.IsZero())
	assert.True(t, view.Realized.IsZero())
	require.Len(t, view.Holdings, 1)
	assert.Equal(t, int64(0), view.Holdings[0].Quantity)
}

func TestNormalize_EmptyAndNull(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		view, err := Normalize([]byte(raw))
		require.NoError(t, err)
		assert.NotNil(t, view.Holdings)
		assert.Len(t, view.Holdings, 0)
		assert.True(t, view.Cash.IsZero())
	}
}

func TestNormalize_RejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"text"`, `42`, `{"cash":`} {
		_, err := Normalize([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedSnapshot, raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := `{"cash": 10, "realized": 1.5, "holdings": [{"ticker": "GOOG", "qty": 10, "avg_cost": 100, "current_price": 115, "unrealized": 150}]}`
	first, err := Normalize([]byte(raw))
	require.NoError(t, err)

	encoded, err := json.Marshal(first)
	require.NoError(t, err)

	second, err := Normalize(encoded)
	require.NoError(t, err)

	again, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(encoded), string(again))
}

func TestNormalize_NonStringTickerKeepsEntry(t *testing.T) {
	view, err := Normalize([]byte(`{"holdings": [{"ticker": 123, "qty": 5}, {"ticker": "GOOG", "qty": 1}, {"ticker": true, "qty": 2}]}`))
	require.NoError(t, err)

	require.Len(t, view.Holdings, 3)
	assert.Equal(t, domain.Instrument("123"), view.Holdings[0].Instrument)
	assert.Equal(t, int64(5), view.Holdings[0].Quantity)
	assert.Equal(t, domain.Instrument("GOOG"), view.Holdings[1].Instrument)
	assert.True(t, view.Holdings[2].Instrument.IsZero())
	assert.Equal(t, int64(2), view.Holdings[2].Quantity)
}

func TestNormalize_HugeQuantitiesClamp(t *testing.T) {
	view, err := Normalize([]byte(`{"holdings": {"GOOG": "1e30", "TSLA": -1e30, "AMZN": 2.9}}`))
	require.NoError(t, err)

	require.Len(t, view.Holdings, 3)
	assert.Equal(t, int64(math.MaxInt64), view.Holdings[0].Quantity)
	assert.Equal(t, int64(math.MinInt64), view.Holdings[1].Quantity)
	assert.Equal(t, int64(2), view.Holdings[2].Quantity)

	rich, err := Normalize([]byte(`{"holdings": [{"ticker": "GOOG", "qty": 1e25}]}`))
	require.NoError(t, err)
	require.Len(t, rich.Holdings, 1)
	assert.Equal(t, int64(math.MaxInt64), rich.Holdings[0].Quantity)
}
