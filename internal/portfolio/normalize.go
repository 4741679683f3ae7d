// Package portfolio reconciles authoritative account snapshots with live prices.
package portfolio

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

// ErrMalformedSnapshot is returned for payloads that are not JSON objects.
var ErrMalformedSnapshot = errors.New("malformed portfolio snapshot")

type rawSnapshot struct {
	Cash       *number         `json:"cash"`
	Realized   *number         `json:"realized"`
	Unrealized *number         `json:"unrealized"`
	Holdings   json.RawMessage `json:"holdings"`
}

type rawHolding struct {
	Ticker       ticker `json:"ticker"`
	Qty          number `json:"qty"`
	AvgCost      number `json:"avg_cost"`
	CurrentPrice number `json:"current_price"`
	Unrealized   number `json:"unrealized"`
}

// Normalize converts a raw snapshot in either supported shape into a PortfolioView.
//
// Holdings given as a sequence carry cost basis and are mapped field by field, missing
// numbers becoming zero. Holdings given as an object map instrument to quantity only and
// produce holdings with zero cost, price and P/L. A missing unrealized total is the sum of
// the holdings' values; missing cash and realized default to zero. An empty or null payload
// yields the empty portfolio.
func Normalize(raw []byte) (domain.PortfolioView, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.EmptyPortfolio(), nil
	}
	if raw[0] != '{' {
		return domain.PortfolioView{}, ErrMalformedSnapshot
	}

	var snap rawSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.PortfolioView{}, errors.Wrap(ErrMalformedSnapshot, err.Error())
	}

	holdings, err := normalizeHoldings(snap.Holdings)
	if err != nil {
		return domain.PortfolioView{}, err
	}

	unrealized := snap.Unrealized.orZero()
	if snap.Unrealized == nil || !snap.Unrealized.present {
		for _, h := range holdings {
			unrealized = unrealized.Add(h.Unrealized)
		}
	}

	return domain.PortfolioView{
		Cash:       snap.Cash.orZero(),
		Realized:   snap.Realized.orZero(),
		Holdings:   holdings,
		Unrealized: unrealized,
	}, nil
}

func normalizeHoldings(raw json.RawMessage) ([]domain.Holding, error) {
	raw = bytes.TrimSpace(raw)
	holdings := []domain.Holding{}
	if len(raw) == 0 {
		return holdings, nil
	}

	switch raw[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, errors.Wrap(ErrMalformedSnapshot, "decode holdings list")
		}
		for _, entry := range entries {
			var h rawHolding
			if err := json.Unmarshal(entry, &h); err != nil {
				// not an object
				continue
			}
			holdings = append(holdings, domain.Holding{
				Instrument:   domain.Instrument(h.Ticker),
				Quantity:     h.Qty.quantity(),
				AverageCost:  h.AvgCost.orZero(),
				CurrentPrice: h.CurrentPrice.orZero(),
				Unrealized:   h.Unrealized.orZero(),
			})
		}
	case '{':
		quantities, err := orderedQuantities(raw)
		if err != nil {
			return nil, err
		}
		for _, q := range quantities {
			holdings = append(holdings, domain.Holding{
				Instrument:   q.instrument,
				Quantity:     q.quantity,
				AverageCost:  decimal.Zero,
				CurrentPrice: decimal.Zero,
				Unrealized:   decimal.Zero,
			})
		}
	}

	return holdings, nil
}

type legacyQuantity struct {
	instrument domain.Instrument
	quantity   int64
}

// orderedQuantities decodes the legacy instrument -> quantity object keeping wire order.
func orderedQuantities(raw json.RawMessage) ([]legacyQuantity, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(ErrMalformedSnapshot, "decode holdings map")
	}

	var out []legacyQuantity
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(ErrMalformedSnapshot, "decode holdings key")
		}
		key, _ := tok.(string)

		var qty number
		if err := dec.Decode(&qty); err != nil {
			return nil, errors.Wrap(ErrMalformedSnapshot, "decode holdings quantity")
		}
		out = append(out, legacyQuantity{
			instrument: domain.Instrument(key),
			quantity:   qty.quantity(),
		})
	}

	return out, nil
}
