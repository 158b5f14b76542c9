package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/fxdash/market"
	"github.com/rustyeddy/fxdash/scheduler"
	"github.com/rustyeddy/fxdash/sim"
	"gopkg.in/yaml.v3"
)

// Config represents the complete dashboard configuration
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// SimulationConfig contains the price feed parameters
type SimulationConfig struct {
	BasePrice    float64 `json:"base_price" yaml:"base_price"`
	TickInterval string  `json:"tick_interval" yaml:"tick_interval"` // e.g. "2s"
	Window       int     `json:"window" yaml:"window"`
	PriceJitter  float64 `json:"price_jitter" yaml:"price_jitter"`
	WalkStep     float64 `json:"walk_step" yaml:"walk_step"`
	LotSize      float64 `json:"lot_size" yaml:"lot_size"`
	Seed         int64   `json:"seed,omitempty" yaml:"seed,omitempty"` // 0 = seeded from the clock
}

// AnalysisConfig controls the signal generator
type AnalysisConfig struct {
	Delay       string   `json:"delay" yaml:"delay"`
	Pairs       []string `json:"pairs" yaml:"pairs"`
	AutoExecute bool     `json:"auto_execute" yaml:"auto_execute"`
	Schedule    string   `json:"schedule,omitempty" yaml:"schedule,omitempty"` // cron spec, empty = manual only
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// TickDuration converts tick_interval to a time.Duration
func (s SimulationConfig) TickDuration() (time.Duration, error) {
	return parseDuration(s.TickInterval)
}

// DelayDuration converts the analysis delay to a time.Duration
func (a AnalysisConfig) DelayDuration() (time.Duration, error) {
	return parseDuration(a.Delay)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}

	if c.Simulation.BasePrice <= 0 {
		return fmt.Errorf("simulation.base_price must be positive")
	}
	tick, err := c.Simulation.TickDuration()
	if err != nil {
		return fmt.Errorf("simulation.tick_interval: %w", err)
	}
	if tick <= 0 {
		return fmt.Errorf("simulation.tick_interval must be positive")
	}
	if c.Simulation.Window < 1 {
		return fmt.Errorf("simulation.window must be at least 1")
	}
	if c.Simulation.PriceJitter < 0 || c.Simulation.WalkStep < 0 {
		return fmt.Errorf("simulation price_jitter and walk_step must not be negative")
	}
	if c.Simulation.LotSize <= 0 {
		return fmt.Errorf("simulation.lot_size must be positive")
	}

	delay, err := c.Analysis.DelayDuration()
	if err != nil {
		return fmt.Errorf("analysis.delay: %w", err)
	}
	if delay <= 0 {
		return fmt.Errorf("analysis.delay must be positive")
	}
	if len(c.Analysis.Pairs) == 0 {
		return fmt.Errorf("analysis.pairs is required")
	}
	if len(c.Analysis.Pairs) != sim.SignalsPerRun {
		return fmt.Errorf("analysis.pairs must list exactly %d pairs, got %d", sim.SignalsPerRun, len(c.Analysis.Pairs))
	}
	seen := make(map[market.Pair]bool, len(c.Analysis.Pairs))
	for _, s := range c.Analysis.Pairs {
		pair, err := market.ParsePair(s)
		if err != nil {
			return fmt.Errorf("analysis.pairs: %w", err)
		}
		if seen[pair] {
			return fmt.Errorf("analysis.pairs: %s listed more than once", pair)
		}
		seen[pair] = true
	}
	if c.Analysis.Schedule != "" {
		if err := scheduler.Validate(c.Analysis.Schedule); err != nil {
			return fmt.Errorf("analysis.schedule: %w", err)
		}
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// Params converts the configuration into simulation parameters. The
// configuration must be valid.
func (c *Config) Params() sim.Params {
	p := sim.DefaultParams()
	p.BaseBalance = c.Account.Balance
	p.BasePrice = c.Simulation.BasePrice
	p.PriceJitter = c.Simulation.PriceJitter
	p.WalkStep = c.Simulation.WalkStep
	p.LotSize = c.Simulation.LotSize
	p.WindowSize = c.Simulation.Window

	p.Signals.BasePrice = c.Simulation.BasePrice
	p.Signals.Pairs = p.Signals.Pairs[:0]
	for _, s := range c.Analysis.Pairs {
		if pair, err := market.ParsePair(s); err == nil {
			p.Signals.Pairs = append(p.Signals.Pairs, pair)
		}
	}
	return p
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	pairs := make([]string, 0, sim.SignalsPerRun)
	for _, p := range market.Pairs[:sim.SignalsPerRun] {
		pairs = append(pairs, p.String())
	}

	return &Config{
		Account: AccountConfig{
			ID:       "SIM-001",
			Currency: "USD",
			Balance:  10000,
		},
		Simulation: SimulationConfig{
			BasePrice:    market.BasePrice,
			TickInterval: "2s",
			Window:       21,
			PriceJitter:  0.005,
			WalkStep:     0.00025,
			LotSize:      market.LotSize,
		},
		Analysis: AnalysisConfig{
			Delay: "2s",
			Pairs: pairs,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
