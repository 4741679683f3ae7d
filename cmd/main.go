// Command livefolio runs the live portfolio viewer: it follows the account server's price
// feed, keeps a revalued portfolio and serves it on a local web surface.
//
// Usage:
//
//	livefolio --config config.yaml
//	livefolio (uses CLI arguments)
//	livefolio --setup (interactive wizard)
//
// Required environment variables:
//
//	LIVEFOLIO_TOKEN: account session token, may also be set in .env
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/livefolio/config"
	"github.com/vadiminshakov/livefolio/internal/clients"
	"github.com/vadiminshakov/livefolio/internal/engine"
	"github.com/vadiminshakov/livefolio/internal/setup"
	"github.com/vadiminshakov/livefolio/internal/storage/viewjournal"
	"github.com/vadiminshakov/livefolio/internal/web"
	"github.com/vadiminshakov/livefolio/pkg/retrier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Setup {
		path, err := setup.RunTUI(".env")
		if err != nil {
			log.Fatal(err)
		}
		if cfg, err = config.Load([]string{"--config", path}); err != nil {
			log.Fatal(err)
		}
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if cfg.Token == "" {
		logger.Warn(config.TokenEnv + " is not set, account requests will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Fatal("livefolio stopped", zap.Error(err))
	}
	logger.Info("livefolio stopped")
}

func run(ctx context.Context, logger *zap.Logger, cfg config.Config) error {
	journal, err := viewjournal.NewWALStore(cfg.JournalDir)
	if err != nil {
		return errors.Wrap(err, "open portfolio journal")
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logger.Warn("failed to close portfolio journal", zap.Error(err))
		}
	}()

	api := clients.NewAccountClient(logger, cfg.APIURL, cfg.Token,
		clients.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		clients.WithRetrier(retrier.New(
			retrier.WithMaxRetries(cfg.MaxRetries),
			retrier.WithOnRetry(func(attempt int, err error) {
				logger.Debug("retrying account request", zap.Int("attempt", attempt), zap.Error(err))
			}),
		)),
	)
	feed := clients.NewFeedClient(logger, cfg.FeedURL, cfg.Token)

	eng := engine.New(logger, feed, api,
		engine.WithJournal(journal),
		engine.WithSupported(cfg.Supported),
		engine.WithEMAPeriod(cfg.EMAPeriod),
	)
	server := web.NewServer(logger, cfg.Listen, eng, journal)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		// a failed profile load leaves a notice on the view, the viewer keeps running
		if err := eng.LoadProfile(gctx); err != nil {
			logger.Warn("initial profile load failed", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		// stop serving once the engine is gone
		sctx, cancel := context.WithCancel(gctx)
		defer cancel()
		go func() {
			select {
			case <-eng.Done():
				cancel()
			case <-sctx.Done():
			}
		}()

		if len(cfg.TLSDomains) > 0 {
			return server.StartWithAutoTLS(sctx, cfg.TLSDomains, cfg.TLSCacheDir)
		}
		return server.Start(sctx)
	})

	return g.Wait()
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	zcfg.Level = lvl
	return zcfg.Build()
}
