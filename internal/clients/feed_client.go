package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/livefolio/internal/engine"
	"github.com/vadiminshakov/livefolio/internal/events"
	"go.uber.org/zap"
)

const (
	defaultReconnectDelay = 2 * time.Second
	feedEventBuffer       = 256
	feedOutboxBuffer      = 16
)

// ErrSubscriptionClosed Send was called after Close.
var ErrSubscriptionClosed = errors.New("feed subscription closed")

// FeedClient websocket client for the live price feed.
type FeedClient struct {
	url            string
	token          string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	logger         *zap.Logger
}

// FeedOption configures the FeedClient.
type FeedOption func(*FeedClient)

// WithReconnectDelay sets the pause between reconnect attempts.
func WithReconnectDelay(d time.Duration) FeedOption {
	return func(f *FeedClient) {
		f.reconnectDelay = d
	}
}

// NewFeedClient creates a feed client for a ws:// or wss:// endpoint.
func NewFeedClient(logger *zap.Logger, url, token string, opts ...FeedOption) *FeedClient {
	f := &FeedClient{
		url:            url,
		token:          token,
		dialer:         websocket.DefaultDialer,
		reconnectDelay: defaultReconnectDelay,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe dials the feed and keeps the connection alive until Close or ctx is done.
// The first dial is synchronous so a wrong endpoint fails fast.
func (f *FeedClient) Subscribe(ctx context.Context) (engine.Subscription, error) {
	conn, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &feedSubscription{
		client: f,
		ctx:    subCtx,
		cancel: cancel,
		events: make(chan events.Event, feedEventBuffer),
		outbox: make(chan events.Envelope, feedOutboxBuffer),
	}
	s.wg.Add(1)
	go s.run(conn)

	return s, nil
}

func (f *FeedClient) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if f.token != "" {
		header.Set("Authorization", "Bearer "+f.token)
	}
	conn, _, err := f.dialer.DialContext(ctx, f.url, header)
	if err != nil {
		return nil, errors.Wrapf(err, "dial feed %s", f.url)
	}
	return conn, nil
}

type feedSubscription struct {
	client *FeedClient
	ctx    context.Context
	cancel context.CancelFunc
	events chan events.Event
	outbox chan events.Envelope

	mu   sync.Mutex
	conn *websocket.Conn

	wg   sync.WaitGroup
	once sync.Once
}

func (s *feedSubscription) Events() <-chan events.Event {
	return s.events
}

// Send queues a frame for the current (or next) connection.
func (s *feedSubscription) Send(ctx context.Context, env events.Envelope) error {
	if s.ctx.Err() != nil {
		return ErrSubscriptionClosed
	}
	select {
	case s.outbox <- env:
		return nil
	case <-s.ctx.Done():
		return ErrSubscriptionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the connection loop and waits for it. Events is closed afterwards.
func (s *feedSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		if s.conn != nil {
			_ = s.conn.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	})
	return nil
}

func (s *feedSubscription) run(conn *websocket.Conn) {
	defer s.wg.Done()
	defer close(s.events)

	logger := s.client.logger
	for {
		err := s.serve(conn)
		if s.ctx.Err() != nil {
			return
		}
		logger.Warn("feed connection lost", zap.Error(err))
		if !s.emit(events.Disconnected{Err: err}) {
			return
		}

		conn = s.redial()
		if conn == nil {
			return
		}
	}
}

// redial retries until it connects or the subscription is closed.
func (s *feedSubscription) redial() *websocket.Conn {
	for {
		timer := time.NewTimer(s.client.reconnectDelay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		conn, err := s.client.dial(s.ctx)
		if err == nil {
			s.client.logger.Info("feed reconnected")
			return conn
		}
		s.client.logger.Debug("feed reconnect failed", zap.Error(err))
	}
}

// serve pumps one connection until it fails.
func (s *feedSubscription) serve(conn *websocket.Conn) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		_ = conn.Close()
		return s.ctx.Err()
	}
	s.conn = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		_ = conn.Close()
	}()

	if !s.emit(events.Connected{}) {
		return s.ctx.Err()
	}

	stop := make(chan struct{})
	defer close(stop)
	go s.writeLoop(conn, stop)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.dispatch(message)
	}
}

func (s *feedSubscription) writeLoop(conn *websocket.Conn, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-s.ctx.Done():
			return
		case env := <-s.outbox:
			if err := conn.WriteJSON(env); err != nil {
				s.client.logger.Warn("feed write failed", zap.String("event", env.Event), zap.Error(err))
				_ = conn.Close()
				return
			}
		}
	}
}

func (s *feedSubscription) dispatch(message []byte) {
	var env events.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		s.client.logger.Debug("dropping non-envelope feed frame", zap.Error(err))
		return
	}
	ev, ok := events.FromEnvelope(env)
	if !ok {
		s.client.logger.Debug("dropping unknown feed event", zap.String("event", env.Event))
		return
	}
	s.emit(ev)
}

func (s *feedSubscription) emit(ev events.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}
