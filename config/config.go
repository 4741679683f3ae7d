package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/livefolio/internal/domain"
	"gopkg.in/yaml.v3"
)

// TokenEnv environment variable holding the account session token.
const TokenEnv = "LIVEFOLIO_TOKEN"

const (
	defaultAPIURL         = "http://localhost:4000"
	defaultFeedURL        = "ws://localhost:4000/feed"
	defaultListen         = ":8080"
	defaultJournalDir     = "./wal/portfolio"
	defaultTLSCacheDir    = "cert-cache"
	defaultRequestTimeout = 10 * time.Second
	defaultMaxRetries     = 3
	defaultEMAPeriod      = 5
	defaultLogLevel       = "info"
	defaultEnvFile        = ".env"
)

type Config struct {
	APIURL         string
	FeedURL        string
	Token          string
	Listen         string
	TLSDomains     []string
	TLSCacheDir    string
	JournalDir     string
	Supported      []domain.Instrument
	RequestTimeout time.Duration
	MaxRetries     int
	EMAPeriod      int
	LogLevel       string

	// Setup requests the interactive wizard instead of a run.
	Setup bool
}

// ConfigTmp yaml representation of Config. The token is never stored here.
type ConfigTmp struct {
	APIURL         string        `yaml:"api_url"`
	FeedURL        string        `yaml:"feed_url"`
	Listen         string        `yaml:"listen,omitempty"`
	TLSDomains     []string      `yaml:"tls_domains,omitempty"`
	TLSCacheDir    string        `yaml:"tls_cache_dir,omitempty"`
	JournalDir     string        `yaml:"journal_dir,omitempty"`
	Supported      []string      `yaml:"supported,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	MaxRetries     *int          `yaml:"max_retries,omitempty"`
	EMAPeriod      int           `yaml:"ema_period,omitempty"`
	LogLevel       string        `yaml:"log_level,omitempty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		FeedURL:        defaultFeedURL,
		Listen:         defaultListen,
		TLSCacheDir:    defaultTLSCacheDir,
		JournalDir:     defaultJournalDir,
		Supported:      domain.CopyInstruments(domain.DefaultInstruments),
		RequestTimeout: defaultRequestTimeout,
		MaxRetries:     defaultMaxRetries,
		EMAPeriod:      defaultEMAPeriod,
		LogLevel:       defaultLogLevel,
	}
}

// Get parses the process arguments.
func Get() (Config, error) {
	return Load(os.Args[1:])
}

// Load builds the configuration from --config yaml or from flags. The token always comes
// from the environment, optionally seeded from an env file.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("livefolio", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	envFile := fs.String("env", defaultEnvFile, "env file with "+TokenEnv)
	setup := fs.Bool("setup", false, "run the interactive config wizard")
	cli := registerFlags(fs)

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(*envFile); err != nil {
		return Config{}, err
	}

	if *setup {
		cfg := Default()
		cfg.Setup = true
		return cfg, nil
	}

	var (
		cfg Config
		err error
	)
	if *configPath != "" {
		cfg, err = LoadFile(*configPath)
	} else {
		cfg, err = cli.config()
	}
	if err != nil {
		return Config{}, err
	}

	cfg.Token = os.Getenv(TokenEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a yaml config, filling omitted fields with defaults.
func LoadFile(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "parse yaml config %s", path)
	}

	cfg := Default()
	if tmp.APIURL != "" {
		cfg.APIURL = tmp.APIURL
	}
	if tmp.FeedURL != "" {
		cfg.FeedURL = tmp.FeedURL
	}
	if tmp.Listen != "" {
		cfg.Listen = tmp.Listen
	}
	cfg.TLSDomains = tmp.TLSDomains
	if tmp.TLSCacheDir != "" {
		cfg.TLSCacheDir = tmp.TLSCacheDir
	}
	if tmp.JournalDir != "" {
		cfg.JournalDir = tmp.JournalDir
	}
	if len(tmp.Supported) > 0 {
		cfg.Supported = domain.ParseInstruments(strings.Join(tmp.Supported, ","))
	}
	if tmp.RequestTimeout != 0 {
		cfg.RequestTimeout = tmp.RequestTimeout
	}
	if tmp.MaxRetries != nil {
		cfg.MaxRetries = *tmp.MaxRetries
	}
	if tmp.EMAPeriod != 0 {
		cfg.EMAPeriod = tmp.EMAPeriod
	}
	if tmp.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(tmp.LogLevel))
	}

	return cfg, nil
}

// ToTmp converts the config back to its yaml form.
func (c Config) ToTmp() ConfigTmp {
	supported := make([]string, len(c.Supported))
	for i, s := range c.Supported {
		supported[i] = s.String()
	}
	retries := c.MaxRetries
	return ConfigTmp{
		APIURL:         c.APIURL,
		FeedURL:        c.FeedURL,
		Listen:         c.Listen,
		TLSDomains:     c.TLSDomains,
		TLSCacheDir:    c.TLSCacheDir,
		JournalDir:     c.JournalDir,
		Supported:      supported,
		RequestTimeout: c.RequestTimeout,
		MaxRetries:     &retries,
		EMAPeriod:      c.EMAPeriod,
		LogLevel:       c.LogLevel,
	}
}

// Validate checks that the config can start the viewer.
func (c Config) Validate() error {
	api, err := url.Parse(c.APIURL)
	if err != nil || (api.Scheme != "http" && api.Scheme != "https") || api.Host == "" {
		return fmt.Errorf("incorrect 'api_url' param: %q (must be http(s)://host)", c.APIURL)
	}
	feed, err := url.Parse(c.FeedURL)
	if err != nil || (feed.Scheme != "ws" && feed.Scheme != "wss") || feed.Host == "" {
		return fmt.Errorf("incorrect 'feed_url' param: %q (must be ws(s)://host/path)", c.FeedURL)
	}
	if c.Listen == "" {
		return fmt.Errorf("'listen' param is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("incorrect 'request_timeout' param: %s (must be positive)", c.RequestTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("incorrect 'max_retries' param: %d (must be >= 0)", c.MaxRetries)
	}
	if c.EMAPeriod < 1 {
		return fmt.Errorf("incorrect 'ema_period' param: %d (must be >= 1)", c.EMAPeriod)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("incorrect 'log_level' param: %q (debug, info, warn or error)", c.LogLevel)
	}
	return nil
}

// loadEnvFile copies variables from an env file into the process environment without
// overriding non-empty values. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil
		}
		return errors.Wrapf(err, "read env file %s", path)
	}
	for k, v := range values {
		if os.Getenv(k) == "" {
			if err := os.Setenv(k, v); err != nil {
				return errors.Wrapf(err, "set %s", k)
			}
		}
	}
	return nil
}

// SaveToken writes the token into an env file, keeping other entries.
func SaveToken(path, token string) error {
	if path == "" {
		path = defaultEnvFile
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return errors.Wrapf(err, "read env file %s", path)
		}
		values = map[string]string{}
	}
	values[TokenEnv] = token
	return errors.Wrap(godotenv.Write(values, path), "write env file")
}
