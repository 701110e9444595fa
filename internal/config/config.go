// Package config defines process configuration and its loading.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and env vars on top.
// - Functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig; provider failures wrap ErrLoadConfig.
package config

import (
	"context"
	"time"
)

// Config contains process configuration for both the store server and the
// dashboard client.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the store's HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// BaseURL is where the dashboard finds the store.
	BaseURL string `koanf:"base_url"`

	// MaxEntities caps the players on the chart. Negative means unlimited.
	MaxEntities int `koanf:"max_entities"`

	// PreviewSize is the number of echo entries in the preview.
	PreviewSize int `koanf:"preview_size"`

	// StatusClearMS is how long a form status stays up. Zero keeps it.
	StatusClearMS int `koanf:"status_clear_ms"`

	// RequestTimeoutMS bounds each store request. Zero means no timeout.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	CoupleAlertFailures bool `koanf:"couple_alert_failures"`
	DiscardStale        bool `koanf:"discard_stale"`

	// BattingCSV and BowlingCSV seed the store on start. Missing files are skipped.
	BattingCSV string `koanf:"batting_csv"`
	BowlingCSV string `koanf:"bowling_csv"`

	// StrikeRateAlert and EconomyAlert are the alert thresholds.
	StrikeRateAlert float64 `koanf:"strike_rate_alert"`
	EconomyAlert    float64 `koanf:"economy_alert"`

	// AlertDedupeMax bounds the alert messages remembered while seeding.
	// Zero remembers all of them.
	AlertDedupeMax int `koanf:"alert_dedupe_max"`
}

// New creates a Config with defaults. Context is accepted first to follow
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":5000",
		BaseURL:          "http://127.0.0.1:5000",
		MaxEntities:      -1,
		PreviewSize:      10,
		StatusClearMS:    3000,
		RequestTimeoutMS: 0,
		BattingCSV:       "data/batting_100_players.csv",
		BowlingCSV:       "data/bowling_100_players.csv",
		StrikeRateAlert:  150,
		EconomyAlert:     6,
		AlertDedupeMax:   0,
	}
}

// StatusClearDelay returns StatusClearMS as a duration.
func (c *Config) StatusClearDelay() time.Duration {
	return time.Duration(c.StatusClearMS) * time.Millisecond
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
