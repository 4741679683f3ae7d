package portfolio

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// number decodes loosely typed numeric fields: JSON numbers and numeric strings are
// accepted, null and anything unparsable coerce to zero.
type number struct {
	value decimal.Decimal
	// present is false for absent or null fields.
	present bool
}

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = number{}
		return nil
	}

	n.present = true
	n.value = decimal.Zero

	var text string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
	} else {
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if d, err := decimal.NewFromString(text); err == nil {
		n.value = d
	}
	return nil
}

// orZero returns the decoded value or zero when absent.
func (n *number) orZero() decimal.Decimal {
	if n == nil || !n.present {
		return decimal.Zero
	}
	return n.value
}

var (
	maxQuantity = decimal.NewFromInt(math.MaxInt64)
	minQuantity = decimal.NewFromInt(math.MinInt64)
)

// quantity truncates toward zero, clamping to the int64 range.
func (n *number) quantity() int64 {
	d := n.orZero().Truncate(0)
	switch {
	case d.GreaterThan(maxQuantity):
		return math.MaxInt64
	case d.LessThan(minQuantity):
		return math.MinInt64
	}
	return d.IntPart()
}

// ticker decodes an instrument field: strings as-is, numbers by their literal text,
// anything else as an empty instrument.
type ticker string

func (t *ticker) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = ""
	if len(data) == 0 {
		return nil
	}
	switch {
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*t = ticker(s)
		}
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*t = ticker(data)
	}
	return nil
}
