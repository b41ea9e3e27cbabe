// Package config loads the backtest's runtime parameters: fee model,
// backtest window, initial balances, and the strategy-pairing
// percentages the StrategyOrder collision-stepping algorithm consumes.
//
// Grounded on original_source/src/config.rs (TAKER_ORDER_FEE,
// MAKER_ORDER_FEE, USER_NAME, INIT_BALANCE_USDT/BTC,
// config_date_from/to) and runner/back_trade/config.rs
// (SBackTradeRunnerConfig).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the full set of parameters a backtest run is configured
// with, loaded once at startup.
type Config struct {
	TakerOrderFee decimal.Decimal `json:"taker_order_fee"`
	MakerOrderFee decimal.Decimal `json:"maker_order_fee"`

	DateFrom     time.Time     `json:"date_from"`
	DateTo       time.Time     `json:"date_to"`
	SamplePeriod time.Duration `json:"sample_period"`

	InitBalanceUsdt decimal.Decimal `json:"init_balance_usdt"`
	InitBalanceBtc  decimal.Decimal `json:"init_balance_btc"`
	UserName        string          `json:"user_name"`

	MinimumProfitPercentage  decimal.Decimal `json:"minimum_profit_percentage"`
	MaxProfitPercentage      decimal.Decimal `json:"max_profit_percentage"`
	ClosePriceStepPercentage decimal.Decimal `json:"close_price_step_percentage"`
	CutOffPricePercentage    decimal.Decimal `json:"cut_off_price_percentage"`

	PID PIDConfig `json:"pid_config"`
}

// PIDConfig mirrors the pid.Config fields in JSON-loadable form; the
// cmd/gridback wiring converts this into a pid.Controller.
type PIDConfig struct {
	Proportional  decimal.Decimal `json:"proportional"`
	Integral      decimal.Decimal `json:"integral"`
	MaxCumulative decimal.Decimal `json:"max_cumulative"`
	Derivative    decimal.Decimal `json:"derivative"`
}

// Default returns the parameter set the original reference
// implementation ships as its compiled-in defaults.
func Default() Config {
	return Config{
		TakerOrderFee:            decimal.NewFromFloat(0.0005),
		MakerOrderFee:            decimal.NewFromFloat(0.0002),
		DateFrom:                 time.Date(2025, 1, 15, 0, 0, 0, 0, time.Local),
		DateTo:                   time.Date(2025, 1, 15, 0, 30, 0, 0, time.Local),
		SamplePeriod:             time.Minute,
		InitBalanceUsdt:          decimal.NewFromInt(100000),
		InitBalanceBtc:           decimal.NewFromInt(1),
		UserName:                 "Satoshi Nakamoto",
		MinimumProfitPercentage:  decimal.NewFromFloat(0.01),
		MaxProfitPercentage:      decimal.NewFromFloat(0.05),
		ClosePriceStepPercentage: decimal.NewFromFloat(0.001),
		CutOffPricePercentage:    decimal.NewFromFloat(0.02),
	}
}

// LoadConfig parses a JSON document into a Config.
func LoadConfig(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing: %w", err)
	}
	return cfg, nil
}

// ReadConfigFromFile loads and parses the JSON config document at path.
func ReadConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return LoadConfig(data)
}

// DebugConfig toggles the driver's two logging verbosity levels.
type DebugConfig struct {
	IsInfo  bool
	IsDebug bool
}
