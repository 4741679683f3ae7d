package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/livefolio/internal/domain"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaultsFromFlags(t *testing.T) {
	t.Setenv(TokenEnv, "secret")

	cfg, err := Load([]string{"-env", noEnvFile(t)})
	require.NoError(t, err)
	assert.Equal(t, defaultAPIURL, cfg.APIURL)
	assert.Equal(t, defaultFeedURL, cfg.FeedURL)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, domain.DefaultInstruments, cfg.Supported)
	assert.Equal(t, 5, cfg.EMAPeriod)
	assert.False(t, cfg.Setup)
}

func TestLoadFlags(t *testing.T) {
	t.Setenv(TokenEnv, "")

	cfg, err := Load([]string{
		"-env", noEnvFile(t),
		"-api", "https://example.com/api",
		"-feed", "wss://example.com/feed",
		"-supported", "AAPL, MSFT",
		"-tls-domains", "a.example.com,b.example.com",
		"-timeout", "3s",
		"-retries", "0",
		"-ema", "9",
		"-loglevel", "DEBUG",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api", cfg.APIURL)
	assert.Equal(t, []domain.Instrument{"AAPL", "MSFT"}, cfg.Supported)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.TLSDomains)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 9, cfg.EMAPeriod)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.Token)
}

func TestLoadYaml(t *testing.T) {
	t.Setenv(TokenEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://example.com/api
feed_url: wss://example.com/feed
supported: [GOOG, TSLA]
request_timeout: 2s
max_retries: 0
`), 0644))

	cfg, err := Load([]string{"-env", noEnvFile(t), "-config", path})
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/feed", cfg.FeedURL)
	assert.Equal(t, []domain.Instrument{"GOOG", "TSLA"}, cfg.Supported)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, defaultEMAPeriod, cfg.EMAPeriod)
}

func TestLoadYamlLogLevelCaseInsensitive(t *testing.T) {
	t.Setenv(TokenEnv, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: INFO\n"), 0644))

	cfg, err := Load([]string{"-env", noEnvFile(t), "-config", path})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadTokenFromEnvFile(t *testing.T) {
	t.Setenv(TokenEnv, "")
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, SaveToken(envPath, "from-file"))

	cfg, err := Load([]string{"-env", envPath})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Token)
}

func TestLoadEnvDoesNotOverride(t *testing.T) {
	t.Setenv(TokenEnv, "from-env")
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, SaveToken(envPath, "from-file"))

	cfg, err := Load([]string{"-env", envPath})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Token)
}

func TestLoadSetupSkipsValidation(t *testing.T) {
	cfg, err := Load([]string{"-env", noEnvFile(t), "-setup", "-ema", "0"})
	require.NoError(t, err)
	assert.True(t, cfg.Setup)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"api scheme", func(c *Config) { c.APIURL = "ftp://example.com" }},
		{"feed scheme", func(c *Config) { c.FeedURL = "http://example.com/feed" }},
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"retries", func(c *Config) { c.MaxRetries = -1 }},
		{"ema", func(c *Config) { c.EMAPeriod = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
