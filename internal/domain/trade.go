package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trade recorded upstream; immutable once received.
type Trade struct {
	// Type buy or sell.
	Type TradeType `json:"type"`
	// Instrument traded symbol.
	Instrument Instrument `json:"ticker"`
	// Quantity number of units, positive.
	Quantity int64 `json:"qty"`
	// Price execution price per unit.
	Price decimal.Decimal `json:"price"`
	// Timestamp execution time.
	Timestamp Timestamp `json:"ts"`
}

// String returns a human-readable string representation.
func (t Trade) String() string {
	return fmt.Sprintf("%s %d %s @ %s", t.Type, t.Quantity, t.Instrument, t.Price.String())
}

// Timestamp execution time that decodes from epoch milliseconds or RFC 3339 text.
type Timestamp struct {
	time.Time
}

// MarshalJSON encodes the time as epoch milliseconds, zero as null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(ts.UnixMilli(), 10)), nil
}

// UnmarshalJSON accepts epoch milliseconds, numeric strings and RFC 3339 strings.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		ts.Time = time.Time{}
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			ts.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		ts.Time = parsed
		return nil
	}

	ms, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	ts.Time = time.UnixMilli(ms.IntPart()).UTC()
	return nil
}
