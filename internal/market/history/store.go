// Package history keeps the per-instrument price series used for charts and trend detection.
package history

import "github.com/vadiminshakov/livefolio/internal/domain"

// Store per-instrument ordered series. Owned by the engine loop; not safe for concurrent use.
// Instruments outside the supported set are stored as well since that set can change at runtime.
type Store struct {
	series map[domain.Instrument]domain.HistorySeries
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{series: make(map[domain.Instrument]domain.HistorySeries)}
}

// Replace sets one instrument's series, as returned by an explicit fetch.
func (s *Store) Replace(instrument domain.Instrument, series domain.HistorySeries) {
	s.series[instrument] = series.Clone()
}

// ApplyDelta replaces the series of every instrument present in the push.
// The push carries the complete rolling window, so nothing is appended.
func (s *Store) ApplyDelta(delta map[domain.Instrument]domain.HistorySeries) bool {
	if delta == nil {
		return false
	}
	for instrument, series := range delta {
		s.series[instrument] = series.Clone()
	}
	return true
}

// Get returns a copy of the instrument's series, empty when unknown.
func (s *Store) Get(instrument domain.Instrument) domain.HistorySeries {
	series, ok := s.series[instrument]
	if !ok {
		return domain.HistorySeries{}
	}
	return series.Clone()
}

// Series returns the stored series without copying, for read-only callers on the loop.
func (s *Store) Series(instrument domain.Instrument) domain.HistorySeries {
	return s.series[instrument]
}
