package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

func TestFromEnvelope(t *testing.T) {
	cases := map[string]string{
		NamePrices:        NamePrices,
		NamePriceDelta:    NamePriceDelta,
		NameHistory:       NameHistory,
		NameHistoryDelta:  NameHistoryDelta,
		NamePortfolio:     NamePortfolio,
		NameTradeExecuted: NameTradeExecuted,
	}
	for wire, want := range cases {
		ev, ok := FromEnvelope(Envelope{Event: wire, Data: json.RawMessage(`{}`)})
		require.True(t, ok, wire)
		assert.Equal(t, want, ev.Name())
	}

	_, ok := FromEnvelope(Envelope{Event: "bogus"})
	assert.False(t, ok)
}

func TestDecodePriceMap(t *testing.T) {
	m, ok := DecodePriceMap(json.RawMessage(`{"GOOG": 101.5, "TSLA": "250"}`))
	require.True(t, ok)
	assert.Equal(t, "101.50", m["GOOG"].StringFixed(2))
	assert.Equal(t, "250.00", m["TSLA"].StringFixed(2))

	_, ok = DecodePriceMap(json.RawMessage(`[1,2]`))
	assert.False(t, ok)
	_, ok = DecodePriceMap(nil)
	assert.False(t, ok)
}

func TestDecodePriceMap_SkipsBadKeys(t *testing.T) {
	m, ok := DecodePriceMap(json.RawMessage(`{"GOOG": 101, "TSLA": "n/a", "AMZN": null, "META": [1]}`))
	require.True(t, ok)
	require.Len(t, m, 1)
	assert.Equal(t, "101.00", m["GOOG"].StringFixed(2))

	m, ok = DecodePriceMap(json.RawMessage(`{"GOOG": "abc"}`))
	require.True(t, ok)
	assert.Empty(t, m)
}

func TestDecodeHistoryDelta_SkipsBadKeys(t *testing.T) {
	m, ok := DecodeHistoryDelta(json.RawMessage(`{"GOOG":[1,2,3],"TSLA":"oops","AMZN":[]}`))
	require.True(t, ok)
	require.Len(t, m, 2)
	assert.Len(t, m["GOOG"], 3)
	assert.Empty(t, m["AMZN"])
	_, has := m["TSLA"]
	assert.False(t, has)

	_, ok = DecodeHistoryDelta(json.RawMessage(`"nope"`))
	assert.False(t, ok)
}

func TestDecodeHistorySnapshot(t *testing.T) {
	instr, series, ok := DecodeHistorySnapshot(json.RawMessage(`{"ticker":"GOOG","history":[100,101]}`))
	require.True(t, ok)
	assert.Equal(t, domain.Instrument("GOOG"), instr)
	assert.Len(t, series, 2)

	instr, series, ok = DecodeHistorySnapshot(json.RawMessage(`{"ticker":"META","history":"bad"}`))
	require.True(t, ok)
	assert.Equal(t, domain.Instrument("META"), instr)
	assert.NotNil(t, series)
	assert.Empty(t, series)
}

func TestDecodeTradeConfirmation(t *testing.T) {
	tr, ok := DecodeTradeConfirmation(json.RawMessage(`{"type":"sell","ticker":"TSLA","qty":1,"price":250,"ts":1700000000000}`))
	require.True(t, ok)
	assert.Equal(t, domain.TradeTypeSell, tr.Type)
	assert.Equal(t, domain.Instrument("TSLA"), tr.Instrument)
	assert.Equal(t, int64(1), tr.Quantity)

	_, ok = DecodeTradeConfirmation(json.RawMessage(`42`))
	assert.False(t, ok)
}
