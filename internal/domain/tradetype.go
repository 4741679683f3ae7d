package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TradeType side of a trade.
type TradeType string

const (
	// TradeTypeBuy buys the instrument with cash.
	TradeTypeBuy TradeType = "buy"
	// TradeTypeSell sells a held instrument for cash.
	TradeTypeSell TradeType = "sell"
)

// String returns the string representation of the trade type.
func (t TradeType) String() string {
	return string(t)
}

// IsValid checks if the TradeType value is valid.
func (t TradeType) IsValid() bool {
	return t == TradeTypeBuy || t == TradeTypeSell
}

// ParseTradeType parses buy/sell, case-insensitive.
func ParseTradeType(s string) (TradeType, error) {
	t := TradeType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid trade type %q", s)
	}
	return t, nil
}

// UnmarshalJSON accepts any casing of buy/sell.
func (t *TradeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTradeType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
