package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vadiminshakov/livefolio/internal/domain"
	"github.com/vadiminshakov/livefolio/internal/events"
	"go.uber.org/zap"
)

// handle applies one feed event. Malformed payloads are dropped and the prior state kept.
func (e *Engine) handle(ctx context.Context, ev events.Event) {
	switch ev := ev.(type) {
	case events.Connected:
		e.logger.Info("feed connected")
		e.connected = true
		e.requestPrices(ctx)
		e.requestHistory(ctx, e.selected)
		e.publish(false)

	case events.Disconnected:
		e.logger.Info("feed disconnected", zap.Error(ev.Err))
		e.setConnected(false)

	case events.PriceSnapshot:
		m, ok := events.DecodePriceMap(ev.Payload)
		if !ok || !e.prices.ApplyFull(m) {
			e.dropped(ev)
			return
		}
		e.repriceAndPublish()

	case events.PriceDelta:
		m, ok := events.DecodePriceMap(ev.Payload)
		if !ok || !e.prices.ApplyDelta(m) {
			e.dropped(ev)
			return
		}
		e.repriceAndPublish()

	case events.HistorySnapshot:
		instrument, series, ok := events.DecodeHistorySnapshot(ev.Payload)
		if !ok {
			e.dropped(ev)
			return
		}
		if instrument != e.selected {
			e.logger.Debug("ignoring history for unselected instrument",
				zap.String("instrument", instrument.String()),
				zap.String("selected", e.selected.String()))
			return
		}
		e.history.Replace(instrument, series)
		e.publish(false)

	case events.HistoryDelta:
		delta, ok := events.DecodeHistoryDelta(ev.Payload)
		if !ok || !e.history.ApplyDelta(delta) {
			e.dropped(ev)
			return
		}
		e.publish(false)

	case events.PortfolioSnapshot:
		e.applySnapshot(ev.Payload)

	case events.TradeConfirmation:
		trade, ok := events.DecodeTradeConfirmation(ev.Payload)
		if !ok {
			e.dropped(ev)
			return
		}
		e.notify(domain.NoticeTrade, fmt.Sprintf("Trade executed: %s %d %s @ %s",
			trade.Type, trade.Quantity, trade.Instrument, trade.Price.String()), false)
		e.publish(false)

	default:
		e.logger.Debug("unhandled feed event", zap.String("event", ev.Name()))
	}
}

func (e *Engine) dropped(ev events.Event) {
	e.logger.Debug("dropping malformed feed payload", zap.String("event", ev.Name()))
}

func (e *Engine) repriceAndPublish() {
	e.reconciler.Reprice(e.prices)
	e.publish(false)
}

// applySnapshot normalizes an authoritative snapshot against the current prices.
func (e *Engine) applySnapshot(raw json.RawMessage) bool {
	if _, err := e.reconciler.ApplySnapshot(raw, e.prices); err != nil {
		e.logger.Debug("dropping malformed portfolio snapshot", zap.Error(err))
		return false
	}
	e.publish(true)
	return true
}

func (e *Engine) requestPrices(ctx context.Context) {
	if e.sub == nil {
		return
	}
	if err := e.sub.Send(ctx, events.Envelope{Event: events.NameRequestPrices}); err != nil {
		e.logger.Warn("failed to request prices", zap.Error(err))
	}
}

func (e *Engine) requestHistory(ctx context.Context, instrument domain.Instrument) {
	if e.sub == nil || instrument.IsZero() {
		return
	}
	data, err := json.Marshal(instrument)
	if err != nil {
		return
	}
	if err := e.sub.Send(ctx, events.Envelope{Event: events.NameRequestHistory, Data: data}); err != nil {
		e.logger.Warn("failed to request history", zap.String("instrument", instrument.String()), zap.Error(err))
	}
}
