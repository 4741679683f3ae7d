// Package clients talks to the upstream account server: REST for account operations and a
// websocket for the live price feed.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"github.com/vadiminshakov/livefolio/pkg/retrier"
	"go.uber.org/zap"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	maxBodySize       = 4 << 20
)

// APIError non-2xx response from the account server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// AccountClient REST client for the account server. GETs are retried, POSTs are sent once.
type AccountClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retrier    *retrier.Retrier
	logger     *zap.Logger
}

// AccountOption configures the AccountClient.
type AccountOption func(*AccountClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) AccountOption {
	return func(a *AccountClient) {
		a.httpClient = c
	}
}

// WithRetrier replaces the retry policy for idempotent requests.
func WithRetrier(r *retrier.Retrier) AccountOption {
	return func(a *AccountClient) {
		a.retrier = r
	}
}

// NewAccountClient creates a client for baseURL authenticating with a bearer token.
func NewAccountClient(logger *zap.Logger, baseURL, token string, opts ...AccountOption) *AccountClient {
	c := &AccountClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	c.retrier = retrier.New(
		retrier.WithMaxRetries(defaultMaxRetries),
		retrier.WithOnRetry(func(attempt int, err error) {
			c.logger.Debug("retrying account request", zap.Int("attempt", attempt), zap.Error(err))
		}),
	)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorBody struct {
	Error string `json:"error"`
}

type tradesBody struct {
	Trades []domain.Trade `json:"trades"`
}

type depositBody struct {
	Portfolio json.RawMessage `json:"portfolio"`
}

// FetchProfile GET /me.
func (c *AccountClient) FetchProfile(ctx context.Context) (domain.Profile, error) {
	var profile domain.Profile
	if err := c.get(ctx, "/me", &profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

// SubmitTrade POST /trade.
func (c *AccountClient) SubmitTrade(ctx context.Context, req domain.TradeRequest) (domain.TradeReceipt, error) {
	var receipt domain.TradeReceipt
	if err := c.send(ctx, http.MethodPost, "/trade", req, &receipt); err != nil {
		return domain.TradeReceipt{}, err
	}
	return receipt, nil
}

// SubmitDeposit POST /deposit, returns the raw portfolio snapshot.
func (c *AccountClient) SubmitDeposit(ctx context.Context, amount decimal.Decimal) ([]byte, error) {
	var body depositBody
	if err := c.send(ctx, http.MethodPost, "/deposit", domain.DepositRequest{Amount: amount}, &body); err != nil {
		return nil, err
	}
	return body.Portfolio, nil
}

// FetchTradeHistory GET /trades.
func (c *AccountClient) FetchTradeHistory(ctx context.Context) ([]domain.Trade, error) {
	var body tradesBody
	if err := c.get(ctx, "/trades", &body); err != nil {
		return nil, err
	}
	if body.Trades == nil {
		body.Trades = []domain.Trade{}
	}
	return body.Trades, nil
}

func (c *AccountClient) get(ctx context.Context, path string, out any) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		err := c.send(ctx, http.MethodGet, path, nil, out)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return retrier.Permanent(err)
		}
		return err
	})
}

func (c *AccountClient) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	c.logger.Debug("account request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(method, path, resp.StatusCode, data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", path)
	}
	return nil
}

// errorMessage prefers the server's {error} text, falling back to a generic one.
func errorMessage(method, path string, status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	action := strings.TrimPrefix(path, "/")
	if method == http.MethodPost && action != "" {
		return fmt.Sprintf("%s%s failed", strings.ToUpper(action[:1]), action[1:])
	}
	return fmt.Sprintf("%s %s returned status %d", method, path, status)
}
