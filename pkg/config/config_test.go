package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledsignal/ledsignal-go/pkg/connection"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 100*time.Millisecond, cfg.Serial.ReopenDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Session.SettleDelay)
	assert.Equal(t, 150*time.Millisecond, cfg.Session.PostWriteDelay)
	assert.Zero(t, cfg.Session.OperationTimeout)
	assert.Equal(t, 3, cfg.Reconcile.Attempts)
	assert.Equal(t, connection.DefaultBackoffConfig(), cfg.Reconcile.Backoff)
	assert.False(t, cfg.Discovery.Enabled)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
serial:
  port: /dev/ttyUSB1
  vid: "2341"
  baud_rate: 115200
session:
  settle_delay: 750ms
  operation_timeout: 5s
reconcile:
  attempts: 5
  backoff:
    initial: 100ms
    max: 1s
    multiplier: 1.5
http:
  addr: ":9090"
discovery:
  enabled: true
  instance: bench-led
log:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, "2341", cfg.Serial.VID)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 750*time.Millisecond, cfg.Session.SettleDelay)
	assert.Equal(t, 150*time.Millisecond, cfg.Session.PostWriteDelay, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Session.OperationTimeout)
	assert.Equal(t, 5, cfg.Reconcile.Attempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Reconcile.Backoff.Initial)
	assert.InDelta(t, 1.5, cfg.Reconcile.Backoff.Multiplier, 1e-9)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.True(t, cfg.Discovery.Enabled)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("serial:\n  speed: 9600\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"baud", func(c *Config) { c.Serial.BaudRate = 0 }},
		{"reopen floor", func(c *Config) { c.Serial.ReopenDelay = 50 * time.Millisecond }},
		{"settle floor", func(c *Config) { c.Session.SettleDelay = 300 * time.Millisecond }},
		{"post write floor", func(c *Config) { c.Session.PostWriteDelay = 99 * time.Millisecond }},
		{"negative timeout", func(c *Config) { c.Session.OperationTimeout = -time.Second }},
		{"attempts", func(c *Config) { c.Reconcile.Attempts = 0 }},
		{"backoff initial", func(c *Config) { c.Reconcile.Backoff.Initial = 0 }},
		{"backoff max", func(c *Config) { c.Reconcile.Backoff.Max = time.Millisecond }},
		{"backoff multiplier", func(c *Config) { c.Reconcile.Backoff.Multiplier = 0.5 }},
		{"backoff jitter", func(c *Config) { c.Reconcile.Backoff.Jitter = 2 }},
		{"history limit", func(c *Config) { c.History.Limit = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"discovery without http", func(c *Config) {
			c.Discovery.Enabled = true
			c.HTTP.Addr = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Serial.BaudRate = -1
	cfg.Reconcile.Attempts = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baud_rate")
	assert.Contains(t, err.Error(), "attempts")
}

func TestLoad(t *testing.T) {
	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledsignal.yaml")
		require.NoError(t, os.WriteFile(path, []byte("serial:\n  port: COM5\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "COM5", cfg.Serial.Port)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("APIKeyFromEnv", func(t *testing.T) {
		t.Setenv("LEDSIGNAL_TEST_KEY", "secret")
		path := filepath.Join(t.TempDir(), "ledsignal.yaml")
		require.NoError(t, os.WriteFile(path, []byte("analysis:\n  api_key_env: LEDSIGNAL_TEST_KEY\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.Analysis.APIKey)
	})

	t.Run("FileKeyWins", func(t *testing.T) {
		t.Setenv(DefaultAPIKeyEnv, "from-env")
		path := filepath.Join(t.TempDir(), "ledsignal.yaml")
		require.NoError(t, os.WriteFile(path, []byte("analysis:\n  api_key: from-file\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.Analysis.APIKey)
	})
}
