// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/executor"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue/binance"
	"github.com/vqhuy/bracketd/internal/venue/paper"
	"gopkg.in/yaml.v3"
)

// Config represents the full application configuration.
type Config struct {
	Venue    VenueConfig    `yaml:"venue"`
	Trade    TradeConfig    `yaml:"trade"`
	Alerting AlertingConfig `yaml:"alerting"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Journal  JournalConfig  `yaml:"journal"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

// VenueConfig holds exchange connectivity settings. Credentials are
// normally injected via ${VAR} expansion rather than written into the file.
type VenueConfig struct {
	Type               string `yaml:"type"` // binance | paper
	BaseURL            string `yaml:"base_url"`
	APIKey             string `yaml:"api_key"`
	APISecret          string `yaml:"api_secret"`
	RecvWindowMs       int    `yaml:"recv_window_ms"`
	TimeoutSec         int    `yaml:"timeout_sec"`
	RateLimitPerSecond int    `yaml:"rate_limit_per_second"`

	// OrderGoneCode is the venue's "order does not exist" rejection code,
	// recognized during cancellation as an expected race.
	OrderGoneCode int64 `yaml:"order_gone_code"`

	// MarkPrices seeds the simulated venue, keyed by instrument. Only
	// used when type is "paper".
	MarkPrices map[string]string `yaml:"mark_prices"`
}

// TradeConfig holds execution policy settings. Price and quantity fields
// are decimal strings to avoid float drift in exact comparisons.
type TradeConfig struct {
	Leverage          int      `yaml:"leverage"`
	StopLossOffset    string   `yaml:"stop_loss_offset"`
	TakeProfitOffset  string   `yaml:"take_profit_offset"`
	TickSize          string   `yaml:"tick_size"`
	MaxQuantity       string   `yaml:"max_quantity"`
	BlockedQuantities []string `yaml:"blocked_quantities"`
	LockWaitMs        int      `yaml:"lock_wait_ms"`

	// LeverageUnchangedCode is the venue's "leverage not modified" code,
	// treated as success since the desired state already holds.
	LeverageUnchangedCode int64 `yaml:"leverage_unchanged_code"`
}

// AlertingConfig holds alerting settings.
type AlertingConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Channels []ChannelConfig `yaml:"channels"`
	Events   []string        `yaml:"events"`
}

// ChannelConfig holds a single alert channel configuration.
type ChannelConfig struct {
	Type     string `yaml:"type"` // telegram | console
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// MetricsConfig holds metrics server settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// JournalConfig holds execution journal settings.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ShutdownConfig holds shutdown settings.
type ShutdownConfig struct {
	TimeoutSec int `yaml:"timeout_sec"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Venue.Type == "" {
		c.Venue.Type = "paper"
	}
	if c.Venue.BaseURL == "" {
		c.Venue.BaseURL = "https://fapi.binance.com"
	}
	if c.Venue.RecvWindowMs <= 0 {
		c.Venue.RecvWindowMs = 5000
	}
	if c.Venue.TimeoutSec <= 0 {
		c.Venue.TimeoutSec = 10
	}
	if c.Venue.RateLimitPerSecond <= 0 {
		c.Venue.RateLimitPerSecond = 8
	}
	if c.Venue.OrderGoneCode == 0 {
		c.Venue.OrderGoneCode = -2011
	}
	if c.Trade.Leverage <= 0 {
		c.Trade.Leverage = 10
	}
	if c.Trade.LeverageUnchangedCode == 0 {
		c.Trade.LeverageUnchangedCode = -4046
	}
	if c.Trade.LockWaitMs <= 0 {
		c.Trade.LockWaitMs = 2000
	}
	if c.Shutdown.TimeoutSec <= 0 {
		c.Shutdown.TimeoutSec = 10
	}
	if c.Metrics.Port <= 0 {
		c.Metrics.Port = 9090
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Venue.Type != "binance" && c.Venue.Type != "paper" {
		errs = append(errs, "venue.type must be 'binance' or 'paper'")
	}
	if c.Venue.Type == "binance" {
		if c.Venue.APIKey == "" {
			errs = append(errs, "venue.api_key is required for binance")
		}
		if c.Venue.APISecret == "" {
			errs = append(errs, "venue.api_secret is required for binance")
		}
	}

	if c.Trade.Leverage < 1 || c.Trade.Leverage > 125 {
		errs = append(errs, "trade.leverage must be between 1 and 125")
	}
	if _, err := requirePositiveDecimal(c.Trade.StopLossOffset); err != nil {
		errs = append(errs, fmt.Sprintf("trade.stop_loss_offset: %v", err))
	}
	if _, err := requirePositiveDecimal(c.Trade.TakeProfitOffset); err != nil {
		errs = append(errs, fmt.Sprintf("trade.take_profit_offset: %v", err))
	}
	if c.Trade.TickSize != "" {
		if _, err := requirePositiveDecimal(c.Trade.TickSize); err != nil {
			errs = append(errs, fmt.Sprintf("trade.tick_size: %v", err))
		}
	}
	if c.Trade.MaxQuantity != "" {
		if _, err := requirePositiveDecimal(c.Trade.MaxQuantity); err != nil {
			errs = append(errs, fmt.Sprintf("trade.max_quantity: %v", err))
		}
	}
	for _, q := range c.Trade.BlockedQuantities {
		if _, err := decimal.NewFromString(q); err != nil {
			errs = append(errs, fmt.Sprintf("trade.blocked_quantities: %q is not a decimal", q))
		}
	}

	for symbol, price := range c.Venue.MarkPrices {
		if _, err := requirePositiveDecimal(price); err != nil {
			errs = append(errs, fmt.Sprintf("venue.mark_prices[%s]: %v", symbol, err))
		}
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal is enabled")
	}

	for i, ch := range c.Alerting.Channels {
		switch ch.Type {
		case "telegram":
			if ch.BotToken == "" || ch.ChatID == "" {
				errs = append(errs, fmt.Sprintf("alerting.channels[%d]: telegram needs bot_token and chat_id", i))
			}
		case "console":
		default:
			errs = append(errs, fmt.Sprintf("alerting.channels[%d]: unknown type %q", i, ch.Type))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

func requirePositiveDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a decimal", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%q must be positive", s)
	}
	return d, nil
}

func optionalDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, _ := decimal.NewFromString(s)
	return d
}

// ToVenueConfig converts to the exchange client configuration.
func (c *Config) ToVenueConfig() binance.Config {
	return binance.Config{
		BaseURL:           c.Venue.BaseURL,
		APIKey:            c.Venue.APIKey,
		APISecret:         c.Venue.APISecret,
		RecvWindow:        time.Duration(c.Venue.RecvWindowMs) * time.Millisecond,
		Timeout:           time.Duration(c.Venue.TimeoutSec) * time.Second,
		RequestsPerSecond: c.Venue.RateLimitPerSecond,
		OrderGoneCode:     c.Venue.OrderGoneCode,
	}
}

// ToExecutorConfig converts to the execution policy configuration. Decimal
// fields are assumed valid; Validate runs first during Load.
func (c *Config) ToExecutorConfig() executor.Config {
	blocked := make([]decimal.Decimal, 0, len(c.Trade.BlockedQuantities))
	for _, q := range c.Trade.BlockedQuantities {
		blocked = append(blocked, optionalDecimal(q))
	}

	return executor.Config{
		Leverage:              c.Trade.Leverage,
		StopLossOffset:        optionalDecimal(c.Trade.StopLossOffset),
		TakeProfitOffset:      optionalDecimal(c.Trade.TakeProfitOffset),
		TickSize:              optionalDecimal(c.Trade.TickSize),
		MaxQuantity:           optionalDecimal(c.Trade.MaxQuantity),
		BlockedQuantities:     blocked,
		LeverageUnchangedCode: c.Trade.LeverageUnchangedCode,
		LockWait:              time.Duration(c.Trade.LockWaitMs) * time.Millisecond,
	}
}

// ToPaperConfig converts to the simulated gateway configuration.
func (c *Config) ToPaperConfig() paper.Config {
	marks := make(map[string]decimal.Decimal, len(c.Venue.MarkPrices))
	for symbol, price := range c.Venue.MarkPrices {
		marks[symbol] = optionalDecimal(price)
	}

	return paper.Config{
		MarkPrices:            marks,
		LeverageUnchangedCode: c.Trade.LeverageUnchangedCode,
	}
}

// ShutdownTimeout returns the shutdown timeout duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Shutdown.TimeoutSec) * time.Second
}

// IsAlertEventEnabled checks if an alert event type is enabled.
func (c *Config) IsAlertEventEnabled(event string) bool {
	if !c.Alerting.Enabled {
		return false
	}
	// If no events specified, all are enabled
	if len(c.Alerting.Events) == 0 {
		return true
	}
	for _, e := range c.Alerting.Events {
		if e == event || e == "all" {
			return true
		}
	}
	return false
}
