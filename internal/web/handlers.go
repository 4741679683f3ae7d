package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/clients"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"github.com/vadiminshakov/livefolio/internal/engine"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type tradeRequest struct {
	Type       string          `json:"type"`
	Instrument string          `json:"ticker"`
	Quantity   decimal.Decimal `json:"qty"`
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type selectRequest struct {
	Instrument string `json:"ticker"`
}

type trendingResponse struct {
	Trending *domain.TrendSignal `json:"trending"`
}

type historyResponse struct {
	Instrument domain.Instrument    `json:"ticker"`
	History    domain.HistorySeries `json:"history"`
}

type tradesResponse struct {
	Trades []domain.Trade `json:"trades"`
	Loaded bool           `json:"loaded"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// writeError maps engine and upstream failures to a status code and an {error} body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := errors.Cause(err).Error()

	var apiErr *clients.APIError
	switch {
	case errors.Is(err, engine.ErrInvalidQuantity),
		errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrInvalidTradeType),
		errors.Is(err, engine.ErrNoInstrument):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrEngineStopped):
		status = http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
		message = apiErr.Message
	}

	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	v := s.engine.View()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"connected": v.Connected,
		"version":   v.Version,
	})
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.View())
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "journal not available"})
		return
	}

	var after uint64
	if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid after index"})
			return
		}
		after = parsed
	}

	records, err := s.journal.RecordsAfter(after)
	if err != nil {
		s.logger.Warn("journal read failed", zap.Error(err))
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	signal, ok, err := s.engine.Trending(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := trendingResponse{}
	if ok {
		resp.Trending = &signal
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	instrument := domain.Instrument(chi.URLParam(r, "instrument"))
	series, err := s.engine.History(r.Context(), instrument)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, historyResponse{Instrument: instrument, History: series})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	chart, err := s.engine.Chart(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	v := s.engine.View()
	s.writeJSON(w, http.StatusOK, tradesResponse{Trades: v.Trades, Loaded: v.TradesLoaded})
}

func (s *Server) handleReloadTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.engine.ReloadTrades(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tradesResponse{Trades: trades, Loaded: true})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if !s.decode(w, r, &req) {
		return
	}

	tradeType, err := domain.ParseTradeType(req.Type)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	trade, err := s.engine.SubmitTrade(r.Context(), tradeType, domain.Instrument(strings.TrimSpace(req.Instrument)), req.Quantity)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"trade": trade, "portfolio": s.engine.View().Portfolio})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.SubmitDeposit(r.Context(), req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"portfolio": s.engine.View().Portfolio})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.Select(r.Context(), domain.Instrument(strings.TrimSpace(req.Instrument))); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"selected": req.Instrument})
}
