// Package events defines the inbound feed events, their payload decoding and the
// fan-out used to publish derived state.
package events

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

// Wire names of feed events.
const (
	NamePrices         = "prices"
	NamePriceDelta     = "stockUpdate"
	NameHistory        = "history"
	NameHistoryDelta   = "historyUpdate"
	NamePortfolio      = "portfolioUpdate"
	NameTradeExecuted  = "tradeExecuted"
	NameRequestPrices  = "getPrices"
	NameRequestHistory = "getHistory"
)

// Envelope frame carried over the feed in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event inbound feed event. Payloads stay opaque until the engine validates them.
type Event interface {
	Name() string
}

// PriceSnapshot full price map.
type PriceSnapshot struct{ Payload json.RawMessage }

// PriceDelta partial price map.
type PriceDelta struct{ Payload json.RawMessage }

// HistorySnapshot one-shot series for a requested instrument.
type HistorySnapshot struct{ Payload json.RawMessage }

// HistoryDelta instrument -> series, each a full replacement.
type HistoryDelta struct{ Payload json.RawMessage }

// PortfolioSnapshot raw authoritative account snapshot.
type PortfolioSnapshot struct{ Payload json.RawMessage }

// TradeConfirmation informational notice that a trade executed.
type TradeConfirmation struct{ Payload json.RawMessage }

// Connected feed connection established.
type Connected struct{}

// Disconnected feed connection lost.
type Disconnected struct{ Err error }

func (PriceSnapshot) Name() string     { return NamePrices }
func (PriceDelta) Name() string        { return NamePriceDelta }
func (HistorySnapshot) Name() string   { return NameHistory }
func (HistoryDelta) Name() string      { return NameHistoryDelta }
func (PortfolioSnapshot) Name() string { return NamePortfolio }
func (TradeConfirmation) Name() string { return NameTradeExecuted }
func (Connected) Name() string         { return "connect" }
func (Disconnected) Name() string      { return "disconnect" }

// FromEnvelope maps a wire frame to its event. Unknown names are reported as not ok.
func FromEnvelope(env Envelope) (Event, bool) {
	switch env.Event {
	case NamePrices:
		return PriceSnapshot{Payload: env.Data}, true
	case NamePriceDelta:
		return PriceDelta{Payload: env.Data}, true
	case NameHistory:
		return HistorySnapshot{Payload: env.Data}, true
	case NameHistoryDelta:
		return HistoryDelta{Payload: env.Data}, true
	case NamePortfolio:
		return PortfolioSnapshot{Payload: env.Data}, true
	case NameTradeExecuted:
		return TradeConfirmation{Payload: env.Data}, true
	default:
		return nil, false
	}
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// DecodePriceMap validates a price map payload. Non-object payloads are rejected; keys
// whose price is not numeric are skipped.
func DecodePriceMap(raw json.RawMessage) (domain.PriceMap, bool) {
	if !isObject(raw) {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	out := make(domain.PriceMap, len(m))
	for k, v := range m {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		var price decimal.Decimal
		if err := price.UnmarshalJSON(v); err != nil {
			continue
		}
		out[domain.Instrument(k)] = price
	}
	return out, true
}

// DecodeHistoryDelta validates a history push. Keys whose value is not a numeric array
// are skipped; a non-object payload is rejected.
func DecodeHistoryDelta(raw json.RawMessage) (map[domain.Instrument]domain.HistorySeries, bool) {
	if !isObject(raw) {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	out := make(map[domain.Instrument]domain.HistorySeries, len(m))
	for k, v := range m {
		series, ok := decodeSeries(v)
		if !ok {
			continue
		}
		out[domain.Instrument(k)] = series
	}
	return out, true
}

type historyResponse struct {
	Ticker  string          `json:"ticker"`
	History json.RawMessage `json:"history"`
}

// DecodeHistorySnapshot validates a one-shot history response. A missing or non-array
// series decodes as empty.
func DecodeHistorySnapshot(raw json.RawMessage) (domain.Instrument, domain.HistorySeries, bool) {
	if !isObject(raw) {
		return "", nil, false
	}
	var resp historyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", nil, false
	}
	series, ok := decodeSeries(resp.History)
	if !ok {
		series = domain.HistorySeries{}
	}
	return domain.Instrument(resp.Ticker), series, true
}

// DecodeTradeConfirmation validates a trade confirmation payload.
func DecodeTradeConfirmation(raw json.RawMessage) (domain.Trade, bool) {
	if !isObject(raw) {
		return domain.Trade{}, false
	}
	var t domain.Trade
	if err := json.Unmarshal(raw, &t); err != nil {
		return domain.Trade{}, false
	}
	return t, true
}

func decodeSeries(raw json.RawMessage) (domain.HistorySeries, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var series domain.HistorySeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, false
	}
	if series == nil {
		series = domain.HistorySeries{}
	}
	return series, true
}
