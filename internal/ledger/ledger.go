// Package ledger caches the account's trade history between explicit reloads.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

// Fetcher retrieves the full trade history from upstream.
type Fetcher interface {
	FetchTradeHistory(ctx context.Context) ([]domain.Trade, error)
}

// Ledger last fetched trade list. Each successful reload replaces the list wholesale, in the
// order upstream returned it; a failed reload keeps the previous list.
type Ledger struct {
	fetcher Fetcher
	now     func() time.Time

	mu       sync.RWMutex
	trades   []domain.Trade
	loaded   bool
	loadedAt time.Time
	// started counts reloads issued, applied is the sequence of the reload that produced trades.
	started uint64
	applied uint64
}

// New creates an empty ledger.
func New(fetcher Fetcher) *Ledger {
	return &Ledger{fetcher: fetcher, now: time.Now}
}

// Reload fetches the full history and replaces the cached list. When reloads overlap, a
// response older than the one already applied is discarded.
func (l *Ledger) Reload(ctx context.Context) ([]domain.Trade, error) {
	l.mu.Lock()
	l.started++
	seq := l.started
	l.mu.Unlock()

	trades, err := l.fetcher.FetchTradeHistory(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reload trade history")
	}
	if trades == nil {
		trades = []domain.Trade{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq > l.applied {
		l.trades = copyTrades(trades)
		l.loaded = true
		l.loadedAt = l.now()
		l.applied = seq
	}

	return copyTrades(l.trades), nil
}

// Trades returns the cached list and whether any reload has succeeded.
func (l *Ledger) Trades() ([]domain.Trade, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyTrades(l.trades), l.loaded
}

// LoadedAt time of the last applied reload.
func (l *Ledger) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

func copyTrades(in []domain.Trade) []domain.Trade {
	if in == nil {
		return nil
	}
	out := make([]domain.Trade, len(in))
	copy(out, in)
	return out
}
