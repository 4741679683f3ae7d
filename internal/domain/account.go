package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Profile account profile returned by the upstream account server.
type Profile struct {
	// Supported instruments the server quotes; empty keeps the current list.
	Supported []Instrument `json:"supported"`
	// Portfolio raw snapshot in either holdings shape.
	Portfolio json.RawMessage `json:"portfolio"`
}

// TradeRequest order submitted upstream.
type TradeRequest struct {
	Type       TradeType  `json:"type"`
	Instrument Instrument `json:"ticker"`
	Quantity   int64      `json:"qty"`
}

// TradeReceipt upstream response to an accepted trade.
type TradeReceipt struct {
	Portfolio json.RawMessage `json:"portfolio"`
	Trade     Trade           `json:"trade"`
}

// DepositRequest cash deposit submitted upstream.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// MarshalJSON writes the amount as a bare JSON number.
func (r DepositRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount json.Number `json:"amount"`
	}{Amount: json.Number(r.Amount.String())})
}
