package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ledsignal/ledsignal-go/pkg/analysis"
	"github.com/ledsignal/ledsignal-go/pkg/connection"
	"github.com/ledsignal/ledsignal-go/pkg/reconcile"
	"github.com/ledsignal/ledsignal-go/pkg/serial"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// DefaultAPIKeyEnv is the environment variable read for the API key.
const DefaultAPIKeyEnv = "GEMINI_API_KEY"

// Config is the daemon configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Session   SessionConfig   `yaml:"session"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	HTTP      HTTPConfig      `yaml:"http"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	History   HistoryConfig   `yaml:"history"`
	State     StateConfig     `yaml:"state"`
	Log       LogConfig       `yaml:"log"`
}

// SerialConfig selects and opens the device port.
type SerialConfig struct {
	// Port is the OS port name. Empty means pick a USB port, filtered by
	// VID and PID when set.
	Port        string        `yaml:"port"`
	VID         string        `yaml:"vid"`
	PID         string        `yaml:"pid"`
	BaudRate    int           `yaml:"baud_rate"`
	ReopenDelay time.Duration `yaml:"reopen_delay"`
}

// SessionConfig holds device session timing.
type SessionConfig struct {
	SettleDelay    time.Duration `yaml:"settle_delay"`
	PostWriteDelay time.Duration `yaml:"post_write_delay"`

	// OperationTimeout bounds each open and write. Zero means none.
	OperationTimeout time.Duration `yaml:"operation_timeout"`
}

// ReconcileConfig holds the retry schedule of the reconciliation loop.
type ReconcileConfig struct {
	Attempts int                      `yaml:"attempts"`
	Backoff  connection.BackoffConfig `yaml:"backoff"`
}

// AnalysisConfig configures the language model client.
type AnalysisConfig struct {
	APIKey      string        `yaml:"api_key"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// HTTPConfig configures the control API. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DiscoveryConfig configures mDNS advertisement of the control API.
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
}

// HistoryConfig configures the analysis history database. An empty Path
// disables it.
type HistoryConfig struct {
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"`
}

// StateConfig configures the runtime state file. An empty Path disables
// it.
type StateConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`

	// EventFile receives CBOR device events. Empty disables it.
	EventFile string `yaml:"event_file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			BaudRate:    serial.DefaultBaudRate,
			ReopenDelay: serial.MinReopenDelay,
		},
		Session: SessionConfig{
			SettleDelay:    connection.DefaultSettleDelay,
			PostWriteDelay: connection.DefaultPostWriteDelay,
		},
		Reconcile: ReconcileConfig{
			Attempts: reconcile.DefaultAttempts,
			Backoff:  connection.DefaultBackoffConfig(),
		},
		Analysis: AnalysisConfig{
			APIKeyEnv: DefaultAPIKeyEnv,
			Model:     analysis.DefaultModel,
			Timeout:   60 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8080",
		},
		Discovery: DiscoveryConfig{
			Instance: "ledsignal",
		},
		History: HistoryConfig{
			Limit: 50,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file at path over the defaults, resolves the API key and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ResolveAPIKey()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data over the defaults without touching the
// environment, then validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ResolveAPIKey fills Analysis.APIKey from the environment when the file
// left it empty.
func (c *Config) ResolveAPIKey() {
	if c.Analysis.APIKey != "" || c.Analysis.APIKeyEnv == "" {
		return
	}
	c.Analysis.APIKey = os.Getenv(c.Analysis.APIKeyEnv)
}

// Validate checks ranges and floors. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Serial.BaudRate > 0, "serial.baud_rate must be positive, got %d", c.Serial.BaudRate)
	check(c.Serial.ReopenDelay >= serial.MinReopenDelay,
		"serial.reopen_delay must be at least %v, got %v", serial.MinReopenDelay, c.Serial.ReopenDelay)
	check(c.Session.SettleDelay >= connection.MinSettleDelay,
		"session.settle_delay must be at least %v, got %v", connection.MinSettleDelay, c.Session.SettleDelay)
	check(c.Session.PostWriteDelay >= connection.MinPostWriteDelay,
		"session.post_write_delay must be at least %v, got %v", connection.MinPostWriteDelay, c.Session.PostWriteDelay)
	check(c.Session.OperationTimeout >= 0, "session.operation_timeout must not be negative")
	check(c.Reconcile.Attempts >= 1, "reconcile.attempts must be at least 1, got %d", c.Reconcile.Attempts)
	check(c.Reconcile.Backoff.Initial > 0, "reconcile.backoff.initial must be positive")
	check(c.Reconcile.Backoff.Max >= c.Reconcile.Backoff.Initial,
		"reconcile.backoff.max must not be below initial")
	check(c.Reconcile.Backoff.Multiplier >= 1, "reconcile.backoff.multiplier must be at least 1")
	check(c.Reconcile.Backoff.Jitter >= 0 && c.Reconcile.Backoff.Jitter <= 1,
		"reconcile.backoff.jitter must be within [0, 1]")
	check(c.Analysis.Timeout >= 0, "analysis.timeout must not be negative")
	check(c.History.Limit > 0, "history.limit must be positive, got %d", c.History.Limit)
	check(c.Discovery.Instance != "" || !c.Discovery.Enabled, "discovery.instance is required when discovery is enabled")
	check(c.HTTP.Addr != "" || !c.Discovery.Enabled, "discovery requires http.addr")

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %v", ErrInvalid, err))
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return level, nil
}

// SlogLevel returns the configured log level, Info if it does not parse.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
