package engine

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"go.uber.org/zap"
)

// Select makes instrument the selected one and asks the feed for its history.
func (e *Engine) Select(ctx context.Context, instrument domain.Instrument) error {
	if instrument.IsZero() {
		return ErrNoInstrument
	}
	return e.exec(ctx, func() {
		e.selected = instrument
		e.requestHistory(ctx, instrument)
		e.publish(false)
	})
}

// LoadProfile fetches the account profile, refreshes the supported list and applies the
// snapshot. On failure the portfolio stays as it was and a notice is recorded.
func (e *Engine) LoadProfile(ctx context.Context) error {
	profile, err := e.api.FetchProfile(ctx)
	if err != nil {
		err = errors.Wrap(err, "fetch profile")
		e.logger.Warn("profile load failed", zap.Error(err))
		e.report(ctx, domain.NoticeProfile, err.Error())
		return err
	}

	return e.exec(ctx, func() {
		if len(profile.Supported) > 0 {
			e.supported = domain.CopyInstruments(profile.Supported)
			if e.selected.IsZero() {
				e.selected = e.supported[0]
			}
		}
		if !e.applySnapshot(profile.Portfolio) {
			e.publish(false)
		}
	})
}

// SubmitTrade validates the order locally, submits it and applies the returned snapshot.
// An empty instrument means the selected one. Validation failures never reach the network.
func (e *Engine) SubmitTrade(ctx context.Context, tradeType domain.TradeType, instrument domain.Instrument, qty decimal.Decimal) (domain.Trade, error) {
	if instrument.IsZero() {
		instrument = e.View().Selected
	}

	var verr error
	switch {
	case instrument.IsZero():
		verr = ErrNoInstrument
	case !qty.IsInteger() || !qty.IsPositive():
		verr = ErrInvalidQuantity
	case !tradeType.IsValid():
		verr = ErrInvalidTradeType
	}
	if verr != nil {
		e.report(ctx, domain.NoticeTrade, textInvalidQuantity)
		return domain.Trade{}, verr
	}

	req := domain.TradeRequest{Type: tradeType, Instrument: instrument, Quantity: qty.IntPart()}
	receipt, err := e.api.SubmitTrade(ctx, req)
	if err != nil {
		err = errors.Wrap(err, "submit trade")
		e.logger.Warn("trade failed", zap.String("instrument", instrument.String()), zap.Error(err))
		e.report(ctx, domain.NoticeTrade, errors.Cause(err).Error())
		return domain.Trade{}, err
	}

	text := fmt.Sprintf("Success: %s %d %s @ %s", req.Type, req.Quantity, req.Instrument, receipt.Trade.Price.String())
	if err := e.exec(ctx, func() {
		e.notify(domain.NoticeTrade, text, false)
		if !e.applySnapshot(receipt.Portfolio) {
			e.publish(false)
		}
	}); err != nil {
		return receipt.Trade, err
	}

	return receipt.Trade, nil
}

// SubmitDeposit validates and submits a cash deposit, then applies the returned snapshot.
func (e *Engine) SubmitDeposit(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		e.report(ctx, domain.NoticeDeposit, textInvalidAmount)
		return ErrInvalidAmount
	}

	raw, err := e.api.SubmitDeposit(ctx, amount)
	if err != nil {
		err = errors.Wrap(err, "submit deposit")
		e.logger.Warn("deposit failed", zap.Error(err))
		e.report(ctx, domain.NoticeDeposit, errors.Cause(err).Error())
		return err
	}

	return e.exec(ctx, func() {
		e.notify(domain.NoticeDeposit, textDepositOK, false)
		if !e.applySnapshot(raw) {
			e.publish(false)
		}
	})
}

// ReloadTrades refreshes the trade ledger from upstream.
func (e *Engine) ReloadTrades(ctx context.Context) ([]domain.Trade, error) {
	trades, err := e.ledger.Reload(ctx)
	if err != nil {
		e.logger.Warn("trade history reload failed", zap.Error(err))
		e.report(ctx, domain.NoticeLedger, errors.Cause(err).Error())
		return nil, err
	}

	if err := e.exec(ctx, func() { e.publish(false) }); err != nil {
		return trades, err
	}
	return trades, nil
}

// report records an error notice on the loop. Failures to reach the loop are ignored.
func (e *Engine) report(ctx context.Context, kind domain.NoticeKind, text string) {
	_ = e.exec(ctx, func() {
		e.notify(kind, text, true)
		e.publish(false)
	})
}
