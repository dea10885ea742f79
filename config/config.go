package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/papertrader/internal/core"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/strategies"
)

// EnvPrefix prefixes environment overrides, e.g. PAPERTRADER_ENGINE_FEE_PCT.
const EnvPrefix = "PAPERTRADER"

// Config represents the complete backtest configuration
type Config struct {
	Engine   Engine         `json:"engine" yaml:"engine" mapstructure:"engine"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data" mapstructure:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal" mapstructure:"journal"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}

// Engine holds the simulator knobs. All percentages are fractions.
type Engine struct {
	StartingEquity float64 `json:"starting_equity" yaml:"starting_equity" mapstructure:"starting_equity"`
	FeePct         float64 `json:"fee_pct" yaml:"fee_pct" mapstructure:"fee_pct"`
	SlippagePct    float64 `json:"slippage_pct" yaml:"slippage_pct" mapstructure:"slippage_pct"`
	MaxPositionPct float64 `json:"max_position_pct" yaml:"max_position_pct" mapstructure:"max_position_pct"`
	StopLossPct    float64 `json:"stop_loss_pct" yaml:"stop_loss_pct" mapstructure:"stop_loss_pct"`
	TakeProfitPct  float64 `json:"take_profit_pct" yaml:"take_profit_pct" mapstructure:"take_profit_pct"`

	// EnforceStops exits on bars that touch the stop or target. Off means
	// stops are only recorded on fills.
	EnforceStops bool `json:"enforce_stops" yaml:"enforce_stops" mapstructure:"enforce_stops"`

	// AnnualizationFactor overrides the factor inferred from bar spacing when > 0.
	AnnualizationFactor float64 `json:"annualization_factor,omitempty" yaml:"annualization_factor,omitempty" mapstructure:"annualization_factor"`
}

// StrategyConfig names the registered strategy and its numeric params
type StrategyConfig struct {
	Name   string             `json:"name" yaml:"name" mapstructure:"name"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
}

// DataConfig selects where bars come from
type DataConfig struct {
	Source   string `json:"source" yaml:"source" mapstructure:"source"` // "csv", "synthetic" or "binance"
	Path     string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
	Symbol   string `json:"symbol,omitempty" yaml:"symbol,omitempty" mapstructure:"symbol"`
	Interval string `json:"interval" yaml:"interval" mapstructure:"interval"`
	Bars     int    `json:"bars" yaml:"bars" mapstructure:"bars"`
	Seed     int64  `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type" mapstructure:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty" mapstructure:"trades_file"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty" mapstructure:"equity_file"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty" mapstructure:"db_path"`
}

type LogConfig struct {
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Engine: DefaultEngine(),
		Strategy: StrategyConfig{
			Name: "sma_rsi",
		},
		Data: DataConfig{
			Source:   "synthetic",
			Symbol:   "BTCUSDT",
			Interval: "1m",
			Bars:     1000,
			Seed:     42,
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}

func DefaultEngine() Engine {
	return Engine{
		StartingEquity: 10000,
		FeePct:         0.0005,
		SlippagePct:    0.0002,
		MaxPositionPct: 0.2,
		StopLossPct:    0.02,
		TakeProfitPct:  0.04,
	}
}

func invalid(format string, args ...any) error {
	return core.Errorf(core.ErrConfigInvalid, format, args...)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Validate checks the engine knobs against their allowed ranges
func (e Engine) Validate() error {
	if !finite(e.StartingEquity) || e.StartingEquity <= 0 {
		return invalid("engine.starting_equity must be positive, got %v", e.StartingEquity)
	}
	if !finite(e.FeePct) || e.FeePct < 0 || e.FeePct >= 1 {
		return invalid("engine.fee_pct must be in [0, 1), got %v", e.FeePct)
	}
	if !finite(e.SlippagePct) || e.SlippagePct < 0 || e.SlippagePct >= 1 {
		return invalid("engine.slippage_pct must be in [0, 1), got %v", e.SlippagePct)
	}
	if !finite(e.MaxPositionPct) || e.MaxPositionPct <= 0 || e.MaxPositionPct > 1 {
		return invalid("engine.max_position_pct must be in (0, 1], got %v", e.MaxPositionPct)
	}
	if !finite(e.StopLossPct) || e.StopLossPct < 0 || e.StopLossPct >= 1 {
		return invalid("engine.stop_loss_pct must be in [0, 1), got %v", e.StopLossPct)
	}
	if !finite(e.TakeProfitPct) || e.TakeProfitPct < 0 {
		return invalid("engine.take_profit_pct must be >= 0, got %v", e.TakeProfitPct)
	}
	if !finite(e.AnnualizationFactor) || e.AnnualizationFactor < 0 {
		return invalid("engine.annualization_factor must be >= 0, got %v", e.AnnualizationFactor)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}

	if c.Strategy.Name == "" {
		return invalid("strategy.name is required")
	}
	if _, err := strategies.New(c.Strategy.Name, c.Strategy.Params); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	switch c.Data.Source {
	case "csv":
		if c.Data.Path == "" {
			return invalid("data.path required for csv source")
		}
	case "synthetic":
		if c.Data.Bars <= 0 {
			return invalid("data.bars must be positive for synthetic source")
		}
	case "binance":
		if c.Data.Symbol == "" {
			return invalid("data.symbol required for binance source")
		}
		if c.Data.Bars <= 0 {
			return invalid("data.bars must be positive for binance source")
		}
	default:
		return invalid("data.source must be 'csv', 'synthetic' or 'binance', got %q", c.Data.Source)
	}
	if c.Data.Source != "csv" {
		if _, err := market.ParseInterval(c.Data.Interval); err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return invalid("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return invalid("journal db_path required for SQLite type")
		}
	default:
		return invalid("journal.type must be 'none', 'csv' or 'sqlite', got %q", c.Journal.Type)
	}
	return nil
}

// Load reads a YAML or JSON config file over the defaults and applies
// PAPERTRADER_* environment overrides. An empty path loads defaults plus
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// Unknown keys, such as a misspelled engine option, are rejected.
	cfg := &Config{}
	if err := v.UnmarshalExact(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshal config: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	e := d.Engine
	v.SetDefault("engine.starting_equity", e.StartingEquity)
	v.SetDefault("engine.fee_pct", e.FeePct)
	v.SetDefault("engine.slippage_pct", e.SlippagePct)
	v.SetDefault("engine.max_position_pct", e.MaxPositionPct)
	v.SetDefault("engine.stop_loss_pct", e.StopLossPct)
	v.SetDefault("engine.take_profit_pct", e.TakeProfitPct)
	v.SetDefault("engine.enforce_stops", e.EnforceStops)
	v.SetDefault("engine.annualization_factor", e.AnnualizationFactor)

	v.SetDefault("strategy.name", d.Strategy.Name)

	v.SetDefault("data.source", d.Data.Source)
	v.SetDefault("data.path", d.Data.Path)
	v.SetDefault("data.symbol", d.Data.Symbol)
	v.SetDefault("data.interval", d.Data.Interval)
	v.SetDefault("data.bars", d.Data.Bars)
	v.SetDefault("data.seed", d.Data.Seed)

	v.SetDefault("journal.type", d.Journal.Type)
	v.SetDefault("journal.trades_file", d.Journal.TradesFile)
	v.SetDefault("journal.equity_file", d.Journal.EquityFile)
	v.SetDefault("journal.db_path", d.Journal.DBPath)

	v.SetDefault("log.development", d.Log.Development)
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
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
