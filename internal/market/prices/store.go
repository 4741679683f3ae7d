// Package prices keeps the latest known price per instrument.
package prices

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

// Store latest price per instrument. Owned by the engine loop; not safe for concurrent use.
type Store struct {
	prices domain.PriceMap
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{prices: make(domain.PriceMap)}
}

// ApplyFull replaces the entire store. A nil map is rejected and the store is left as is.
func (s *Store) ApplyFull(m domain.PriceMap) bool {
	if m == nil {
		return false
	}
	s.prices = m.Clone()
	return true
}

// ApplyDelta overwrites the given instruments only; others keep their prior values.
func (s *Store) ApplyDelta(m domain.PriceMap) bool {
	if m == nil {
		return false
	}
	for instrument, price := range m {
		s.prices[instrument] = price
	}
	return true
}

// Get returns the latest price for the instrument.
func (s *Store) Get(instrument domain.Instrument) (decimal.Decimal, bool) {
	p, ok := s.prices[instrument]
	return p, ok
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() domain.PriceMap {
	return s.prices.Clone()
}

// Len number of instruments with a known price.
func (s *Store) Len() int {
	return len(s.prices)
}
