// Package engine runs the position viewer's single event loop. Feed events, request results
// and queries are applied one at a time on the loop goroutine; every change is published as
// an immutable View.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"github.com/vadiminshakov/livefolio/internal/events"
	"github.com/vadiminshakov/livefolio/internal/ledger"
	"github.com/vadiminshakov/livefolio/internal/market/history"
	"github.com/vadiminshakov/livefolio/internal/market/prices"
	"github.com/vadiminshakov/livefolio/internal/portfolio"
	"go.uber.org/zap"
)

const (
	defaultEMAPeriod = 5
	viewBuffer       = 64
)

// Engine owns the price, history and portfolio state. Loop-owned fields are only touched
// from Run's goroutine.
type Engine struct {
	logger  *zap.Logger
	feed    Feed
	api     AccountAPI
	journal Journal
	now     func() time.Time

	emaPeriod int

	// loop-owned
	prices     *prices.Store
	history    *history.Store
	reconciler *portfolio.Reconciler
	supported  []domain.Instrument
	selected   domain.Instrument
	connected  bool
	notices    map[domain.NoticeKind]domain.Notice
	version    uint64
	sub        Subscription

	ledger *ledger.Ledger

	inbox   chan func()
	running atomic.Bool
	done    chan struct{}
	stop    sync.Once

	current     atomic.Pointer[View]
	broadcaster *events.Broadcaster[View]
}

// Option configures the Engine.
type Option func(*Engine)

// WithJournal records each portfolio change.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithSupported overrides the initial supported list.
func WithSupported(list []domain.Instrument) Option {
	return func(e *Engine) {
		if len(list) > 0 {
			e.supported = domain.CopyInstruments(list)
		}
	}
}

// WithEMAPeriod sets the chart EMA period.
func WithEMAPeriod(period int) Option {
	return func(e *Engine) {
		if period > 0 {
			e.emaPeriod = period
		}
	}
}

// WithClock replaces time.Now for notices.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine with empty stores. Nothing happens until Run is called.
func New(logger *zap.Logger, feed Feed, api AccountAPI, opts ...Option) *Engine {
	e := &Engine{
		logger:      logger,
		feed:        feed,
		api:         api,
		now:         time.Now,
		emaPeriod:   defaultEMAPeriod,
		prices:      prices.NewStore(),
		history:     history.NewStore(),
		reconciler:  portfolio.NewReconciler(),
		supported:   domain.CopyInstruments(domain.DefaultInstruments),
		notices:     make(map[domain.NoticeKind]domain.Notice),
		ledger:      ledger.New(api),
		inbox:       make(chan func()),
		done:        make(chan struct{}),
		broadcaster: events.NewBroadcaster[View](viewBuffer),
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.supported) > 0 {
		e.selected = e.supported[0]
	}

	initial := e.buildView()
	e.current.Store(&initial)

	return e
}

// Run subscribes to the feed and processes events until ctx is cancelled or the feed ends.
// The subscription is closed exactly once on every exit path; no event is applied after that.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine already running")
	}
	defer e.stop.Do(func() { close(e.done) })

	sub, err := e.feed.Subscribe(ctx)
	if err != nil {
		return errors.Wrap(err, "subscribe to feed")
	}
	var closeOnce sync.Once
	release := func() {
		closeOnce.Do(func() {
			if cerr := sub.Close(); cerr != nil {
				e.logger.Warn("failed to close feed subscription", zap.Error(cerr))
			}
			e.logger.Info("feed subscription closed")
		})
	}
	defer release()

	e.sub = sub
	e.logger.Info("engine started", zap.Int("supported", len(e.supported)))

	feedEvents := sub.Events()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", zap.Error(ctx.Err()))
			return nil
		case ev, ok := <-feedEvents:
			if !ok {
				e.setConnected(false)
				return ErrFeedClosed
			}
			e.handle(ctx, ev)
		case fn := <-e.inbox:
			fn()
		}
	}
}

// Done is closed once Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// View returns the latest published view.
func (e *Engine) View() View {
	return *e.current.Load()
}

// Subscribe streams published views. The returned cancel func releases the subscription.
func (e *Engine) Subscribe() (<-chan View, func()) {
	ch := e.broadcaster.Subscribe()
	return ch, func() { e.broadcaster.Unsubscribe(ch) }
}

// exec runs fn on the loop goroutine and waits until it has run.
func (e *Engine) exec(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	task := func() {
		defer close(ran)
		fn()
	}

	select {
	case e.inbox <- task:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ran:
		return nil
	case <-e.done:
		return ErrEngineStopped
	}
}

// publish builds and fans out a new view. portfolioChanged also journals the portfolio.
func (e *Engine) publish(portfolioChanged bool) {
	e.version++
	v := e.buildView()
	e.current.Store(&v)
	e.broadcaster.Publish(v)

	if portfolioChanged && e.journal != nil {
		idx, err := e.journal.Append(v.Portfolio)
		if err != nil {
			e.logger.Warn("failed to journal portfolio", zap.Error(err))
			return
		}
		e.logger.Debug("portfolio journaled", zap.Uint64("index", idx))
	}
}

func (e *Engine) buildView() View {
	trades, loaded := e.ledger.Trades()
	if trades == nil {
		trades = []domain.Trade{}
	}
	notices := make(map[domain.NoticeKind]domain.Notice, len(e.notices))
	for k, n := range e.notices {
		notices[k] = n
	}

	return View{
		Supported:    domain.CopyInstruments(e.supported),
		Selected:     e.selected,
		Prices:       e.prices.Snapshot(),
		Portfolio:    e.reconciler.View(),
		Connected:    e.connected,
		Notices:      notices,
		Trades:       trades,
		TradesLoaded: loaded,
		Version:      e.version,
	}
}

func (e *Engine) notify(kind domain.NoticeKind, text string, isErr bool) {
	e.notices[kind] = domain.Notice{Kind: kind, Text: text, Error: isErr, At: e.now()}
}

func (e *Engine) setConnected(connected bool) {
	if e.connected == connected {
		return
	}
	e.connected = connected
	e.publish(false)
}
