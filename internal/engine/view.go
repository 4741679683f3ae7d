package engine

import (
	"github.com/vadiminshakov/livefolio/internal/domain"
)

// View immutable state published after every processed event.
type View struct {
	Supported    []domain.Instrument                 `json:"supported"`
	Selected     domain.Instrument                   `json:"selected"`
	Prices       domain.PriceMap                     `json:"prices"`
	Portfolio    domain.PortfolioView                `json:"portfolio"`
	Connected    bool                                `json:"connected"`
	Notices      map[domain.NoticeKind]domain.Notice `json:"notices"`
	Trades       []domain.Trade                      `json:"trades"`
	TradesLoaded bool                                `json:"trades_loaded"`
	Version      uint64                              `json:"version"`
}

// Notice returns the last notice of a kind.
func (v View) Notice(kind domain.NoticeKind) (domain.Notice, bool) {
	n, ok := v.Notices[kind]
	return n, ok
}
