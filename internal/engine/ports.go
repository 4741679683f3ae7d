package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"github.com/vadiminshakov/livefolio/internal/events"
)

// Subscription live feed handle. Events is closed once the subscription ends.
type Subscription interface {
	Events() <-chan events.Event
	// Send enqueues an outbound request frame.
	Send(ctx context.Context, env events.Envelope) error
	Close() error
}

// Feed opens live subscriptions to the price feed.
type Feed interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// AccountAPI request/response operations against the account server.
type AccountAPI interface {
	FetchProfile(ctx context.Context) (domain.Profile, error)
	SubmitTrade(ctx context.Context, req domain.TradeRequest) (domain.TradeReceipt, error)
	SubmitDeposit(ctx context.Context, amount decimal.Decimal) ([]byte, error)
	FetchTradeHistory(ctx context.Context) ([]domain.Trade, error)
}

// Journal records every published portfolio change.
type Journal interface {
	Append(view domain.PortfolioView) (uint64, error)
}
