// Package viewjournal is an append-only WAL of published portfolio views. The engine only
// writes to it; readers use it as an audit trail.
package viewjournal

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

const (
	defaultJournalDir   = "./wal/portfolio"
	journalSegmentLimit = 1000
	journalMaxSegments  = 100
	journalKeyPrefix    = "portfolio_view_"
)

var errNotInitialized = errors.New("portfolio journal is not initialized")

// WALStore persists portfolio views in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) the journal under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultJournalDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "portfolio_",
		SegmentThreshold: journalSegmentLimit,
		MaxSegments:      journalMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init portfolio journal WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Append writes the view at the next index and returns that index.
func (s *WALStore) Append(view domain.PortfolioView) (uint64, error) {
	if s == nil || s.wal == nil {
		return 0, errNotInitialized
	}

	payload, err := json.Marshal(view)
	if err != nil {
		return 0, errors.Wrap(err, "marshal portfolio view")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(idx, journalKeyPrefix+"snapshot", payload); err != nil {
		return 0, errors.Wrap(err, "write portfolio view")
	}
	return idx, nil
}

// RecordsAfter returns the views written after index, oldest first.
func (s *WALStore) RecordsAfter(index uint64) ([]domain.PortfolioRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errNotInitialized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return []domain.PortfolioRecord{}, nil
	}

	records := make([]domain.PortfolioRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, journalKeyPrefix) {
			continue
		}
		var view domain.PortfolioView
		if err := json.Unmarshal(payload, &view); err != nil {
			return nil, errors.Wrapf(err, "decode portfolio view %d", idx)
		}
		records = append(records, domain.PortfolioRecord{Index: idx, View: view})
	}

	return records, nil
}

// CurrentIndex latest written index.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errNotInitialized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
