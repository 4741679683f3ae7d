package config

import (
	"flag"
	"strings"
	"time"

	"github.com/vadiminshakov/livefolio/internal/domain"
)

type cliFlags struct {
	apiURL         *string
	feedURL        *string
	listen         *string
	tlsDomains     *string
	tlsCacheDir    *string
	journalDir     *string
	supported      *string
	requestTimeout *time.Duration
	maxRetries     *int
	emaPeriod      *int
	logLevel       *string
}

func registerFlags(fs *flag.FlagSet) *cliFlags {
	return &cliFlags{
		apiURL:         fs.String("api", defaultAPIURL, "account server base url, example: https://example.com/api"),
		feedURL:        fs.String("feed", defaultFeedURL, "price feed websocket url, example: wss://example.com/feed"),
		listen:         fs.String("listen", defaultListen, "address of the local web surface"),
		tlsDomains:     fs.String("tls-domains", "", "comma separated domains for automatic TLS"),
		tlsCacheDir:    fs.String("tls-cache", defaultTLSCacheDir, "certificate cache dir"),
		journalDir:     fs.String("journal", defaultJournalDir, "portfolio journal WAL dir"),
		supported:      fs.String("supported", "", "comma separated instruments, example: GOOG,TSLA"),
		requestTimeout: fs.Duration("timeout", defaultRequestTimeout, "account request timeout"),
		maxRetries:     fs.Int("retries", defaultMaxRetries, "retries for idempotent account requests"),
		emaPeriod:      fs.Int("ema", defaultEMAPeriod, "chart EMA period"),
		logLevel:       fs.String("loglevel", defaultLogLevel, "debug, info, warn or error"),
	}
}

func (f *cliFlags) config() (Config, error) {
	cfg := Default()
	cfg.APIURL = *f.apiURL
	cfg.FeedURL = *f.feedURL
	cfg.Listen = *f.listen
	cfg.TLSDomains = splitList(*f.tlsDomains)
	cfg.TLSCacheDir = *f.tlsCacheDir
	cfg.JournalDir = *f.journalDir
	if list := domain.ParseInstruments(*f.supported); len(list) > 0 {
		cfg.Supported = list
	}
	cfg.RequestTimeout = *f.requestTimeout
	cfg.MaxRetries = *f.maxRetries
	cfg.EMAPeriod = *f.emaPeriod
	cfg.LogLevel = strings.ToLower(*f.logLevel)
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
