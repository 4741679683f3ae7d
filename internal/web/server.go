// Package web exposes the engine over HTTP: JSON endpoints for queries and operations and
// an SSE stream of published views.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"github.com/vadiminshakov/livefolio/internal/engine"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

const shutdownTimeout = 5 * time.Second

// Engine operations and queries served over HTTP.
type Engine interface {
	View() engine.View
	Subscribe() (<-chan engine.View, func())
	Select(ctx context.Context, instrument domain.Instrument) error
	SubmitTrade(ctx context.Context, tradeType domain.TradeType, instrument domain.Instrument, qty decimal.Decimal) (domain.Trade, error)
	SubmitDeposit(ctx context.Context, amount decimal.Decimal) error
	ReloadTrades(ctx context.Context) ([]domain.Trade, error)
	Trending(ctx context.Context) (domain.TrendSignal, bool, error)
	History(ctx context.Context, instrument domain.Instrument) (domain.HistorySeries, error)
	Chart(ctx context.Context) (domain.ChartView, error)
}

type journalReader interface {
	RecordsAfter(index uint64) ([]domain.PortfolioRecord, error)
}

// Server HTTP surface over the engine.
type Server struct {
	addr    string
	engine  Engine
	journal journalReader
	logger  *zap.Logger
	router  *chi.Mux
}

// NewServer creates a server. journal may be nil, which disables the journal endpoint.
func NewServer(logger *zap.Logger, addr string, eng Engine, journal journalReader) *Server {
	s := &Server{
		addr:    addr,
		engine:  eng,
		journal: journal,
		logger:  logger,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/portfolio", func(r chi.Router) {
		r.Get("/", s.handleView)
		r.Get("/stream", s.handleViewStream)
		r.Get("/journal", s.handleJournal)
	})

	s.router.Get("/trending", s.handleTrending)
	s.router.Get("/history/{instrument}", s.handleHistory)
	s.router.Get("/chart", s.handleChart)

	s.router.Get("/trades", s.handleTrades)
	s.router.Post("/trades/reload", s.handleReloadTrades)
	s.router.Post("/trade", s.handleTrade)
	s.router.Post("/deposit", s.handleDeposit)
	s.router.Post("/select", s.handleSelect)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) httpServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := s.httpServer(s.addr, s.router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("web server listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with ACME certificates plus an HTTP server on :80
// for HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := s.httpServer(":80", manager.HTTPHandler(nil))

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12
	httpsSrv := s.httpServer(s.addr, s.router)
	httpsSrv.TLSConfig = tlsConfig

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("http (acme) server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http (acme) server error", zap.Error(err))
		}
	}()

	s.logger.Info("web server listening with TLS", zap.String("addr", s.addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
