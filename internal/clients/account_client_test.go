package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"github.com/vadiminshakov/livefolio/pkg/retrier"
	"go.uber.org/zap"
)

func newTestAccountClient(url string) *AccountClient {
	return NewAccountClient(zap.NewNop(), url, "secret",
		WithRetrier(retrier.New(retrier.WithMaxRetries(2), retrier.WithInitialInterval(time.Millisecond))))
}

func TestAccountClient_FetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{"supported":["GOOG","TSLA"],"portfolio":{"cash":100,"holdings":{"GOOG":5}}}`)
	}))
	defer srv.Close()

	profile, err := newTestAccountClient(srv.URL + "/").FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Instrument{"GOOG", "TSLA"}, profile.Supported)
	assert.JSONEq(t, `{"cash":100,"holdings":{"GOOG":5}}`, string(profile.Portfolio))
}

func TestAccountClient_GetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"trades":[{"type":"buy","ticker":"GOOG","qty":2,"price":"101.5","ts":1700000000000}]}`)
	}))
	defer srv.Close()

	trades, err := newTestAccountClient(srv.URL).FetchTradeHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(2), trades[0].Quantity)
	assert.Equal(t, int64(1700000000000), trades[0].Timestamp.UnixMilli())
	assert.Equal(t, int32(3), calls.Load())
}

func TestAccountClient_GetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Invalid token"}`)
	}))
	defer srv.Close()

	_, err := newTestAccountClient(srv.URL).FetchProfile(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Invalid token", err.Error())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAccountClient_SubmitTrade(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/trade", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"type": "buy", "ticker": "GOOG", "qty": float64(3)}, body)

		_, _ = io.WriteString(w, `{"portfolio":{"cash":10},"trade":{"type":"buy","ticker":"GOOG","qty":3,"price":101.5}}`)
	}))
	defer srv.Close()

	receipt, err := newTestAccountClient(srv.URL).SubmitTrade(context.Background(),
		domain.TradeRequest{Type: domain.TradeTypeBuy, Instrument: "GOOG", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, "101.5", receipt.Trade.Price.String())
	assert.JSONEq(t, `{"cash":10}`, string(receipt.Portfolio))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAccountClient_PostIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestAccountClient(srv.URL).SubmitTrade(context.Background(),
		domain.TradeRequest{Type: domain.TradeTypeSell, Instrument: "TSLA", Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, "Trade failed", err.Error())
	assert.Equal(t, int32(1), calls.Load())
}

func TestAccountClient_SubmitDeposit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/deposit", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"amount":250.75}`, string(raw))
		_, _ = io.WriteString(w, `{"portfolio":{"cash":1250.75,"holdings":[]}}`)
	}))
	defer srv.Close()

	raw, err := newTestAccountClient(srv.URL).SubmitDeposit(context.Background(), decimal.RequireFromString("250.75"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cash":1250.75,"holdings":[]}`, string(raw))
}
