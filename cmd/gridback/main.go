// Command gridback runs one deterministic back-test: it loads a
// config file and CSV kline/funding-rate series, wires up a single
// grid strategy per requested trading pair, and writes a per-tick CSV
// report.
//
// Grounded on original_source/src/bin/run.rs and src/script.rs, which
// pick a runner/strategy/price-model combination and drive it; this
// entrypoint exposes the same choices as CLI flags instead of
// commented-out code paths.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/config"
	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/data"
	"github.com/ridgeline-quant/gridback/engine"
	"github.com/ridgeline-quant/gridback/report"
	"github.com/ridgeline-quant/gridback/strategy"
	"github.com/ridgeline-quant/gridback/strategy/pid"
	"github.com/ridgeline-quant/gridback/strategy/position"
	"github.com/ridgeline-quant/gridback/strategy/pricemodel"
	"github.com/ridgeline-quant/gridback/strategyorder"
	"github.com/ridgeline-quant/gridback/user"
)

func main() {
	app := &cli.App{
		Name:                 "gridback",
		Usage:                "run a deterministic grid-strategy back-test",
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "JSON config file; compiled-in defaults are used if omitted"},
			&cli.StringFlag{Name: "pairs", Value: "btc_usdt", Usage: "comma-separated pairs to trade: btc_usdt, btc_usdt_future, btc_usd_cm_future"},
			&cli.StringSliceFlag{Name: "kline", Usage: "pair=path.csv kline series, repeatable"},
			&cli.StringSliceFlag{Name: "funding", Usage: "pair=path.csv funding-rate series, repeatable"},
			&cli.StringFlag{Name: "price-model", Value: "longterm", Usage: "sin, step, or longterm"},
			&cli.Float64Flag{Name: "position-max", Value: 0.8, Usage: "upper clamp for the derived target position ratio"},
			&cli.Float64Flag{Name: "position-min", Value: 0.2, Usage: "lower clamp for the derived target position ratio"},
			&cli.Float64Flag{Name: "open-quantity", Value: 0.01, Usage: "base-currency quantity per grid open order"},
			&cli.StringFlag{Name: "output", Value: "backtest.csv", Usage: "path to write the per-tick CSV report"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable info-level driver logging"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug-level driver logging"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("gridback: fatal")
	}
}

func run(c *cli.Context) error {
	setupLogging(c.Bool("debug"))

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	pairs, err := parsePairs(c.String("pairs"))
	if err != nil {
		return err
	}

	source := data.NewMemorySource()
	for _, spec := range c.StringSlice("kline") {
		pair, path, err := splitPairSpec(spec)
		if err != nil {
			return err
		}
		if err := loadKlineCSV(source, pair, path); err != nil {
			return fmt.Errorf("gridback: loading klines: %w", err)
		}
	}
	for _, spec := range c.StringSlice("funding") {
		pair, path, err := splitPairSpec(spec)
		if err != nil {
			return err
		}
		if err := loadFundingRateCSV(source, pair, path); err != nil {
			return fmt.Errorf("gridback: loading funding rates: %w", err)
		}
	}

	priceModel, err := buildPriceModel(c.String("price-model"), cfg)
	if err != nil {
		return err
	}

	positionModel := position.New(priceModel, decimal.NewFromFloat(c.Float64("position-max")), decimal.NewFromFloat(c.Float64("position-min")))
	pidController := buildPIDController(cfg.PID)

	leveraged := false
	for _, p := range pairs {
		if p.IsLeveraged() {
			leveraged = true
		}
	}

	var users []*user.User
	for _, pair := range pairs {
		strategyOrders := strategyorder.NewManager(cfg.MinimumProfitPercentage, cfg.MaxProfitPercentage, cfg.ClosePriceStepPercentage)
		grid := strategy.NewGrid(pair, positionModel, pidController, strategyOrders, cfg.CutOffPricePercentage, decimal.NewFromFloat(c.Float64("open-quantity")))

		u, err := user.New(cfg.UserName, grid)
		if err != nil {
			return fmt.Errorf("gridback: creating user: %w", err)
		}
		u.AvailableAssets.MergeAsset(asset.FromAsset(asset.Asset{Type: currency.Usdt, Balance: cfg.InitBalanceUsdt}))
		u.AvailableAssets.MergeAsset(asset.FromAsset(asset.Asset{Type: currency.Btc, Balance: cfg.InitBalanceBtc}))
		users = append(users, u)
	}

	out, err := os.Create(c.String("output"))
	if err != nil {
		return fmt.Errorf("gridback: opening output: %w", err)
	}
	defer out.Close()
	logger := report.NewLogger(out)

	debug := config.DebugConfig{IsInfo: c.Bool("verbose") || c.Bool("debug"), IsDebug: c.Bool("debug")}

	log.Info().Time("from", cfg.DateFrom).Time("to", cfg.DateTo).Msg("gridback: starting run")

	if leveraged {
		d := engine.NewLeveragedDriver(source, users, cfg, debug, pairs, logger)
		err = d.Run(c.Context)
	} else {
		d := engine.NewDriver(source, users, cfg, debug, pairs, logger)
		err = d.Run(c.Context)
	}
	if err != nil {
		return fmt.Errorf("gridback: run: %w", err)
	}
	if err := logger.Close(); err != nil {
		return fmt.Errorf("gridback: flushing report: %w", err)
	}
	log.Info().Str("output", c.String("output")).Msg("gridback: run complete")
	return nil
}

func setupLogging(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.ReadConfigFromFile(path)
}

var pairNames = map[string]currency.PairType{
	"btc_usdt":          currency.BtcUsdt,
	"btc_usdt_future":   currency.BtcUsdtFuture,
	"btc_usd_cm_future": currency.BtcUsdCmFuture,
}

func parsePairs(pairsCSV string) ([]currency.PairType, error) {
	var pairs []currency.PairType
	for _, name := range strings.Split(pairsCSV, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		pair, ok := pairNames[name]
		if !ok {
			return nil, fmt.Errorf("gridback: unknown pair %q", name)
		}
		pairs = append(pairs, pair)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("gridback: no pairs requested")
	}
	return pairs, nil
}

func buildPriceModel(name string, cfg config.Config) (pricemodel.Model, error) {
	switch name {
	case "longterm":
		return pricemodel.DefaultLongTermTrend(), nil
	case "sin":
		return pricemodel.Sin{
			Period:    24 * time.Hour,
			Amplitude: decimal.NewFromInt(2000),
			Origin:    cfg.DateFrom,
			Mean:      decimal.NewFromInt(50000),
		}, nil
	case "step":
		return pricemodel.Step{
			Period: 24 * time.Hour,
			Top:    decimal.NewFromInt(55000),
			Bottom: decimal.NewFromInt(45000),
			Origin: cfg.DateFrom,
		}, nil
	default:
		return nil, fmt.Errorf("gridback: unknown price model %q", name)
	}
}

func buildPIDController(cfg config.PIDConfig) *pid.Controller {
	if cfg.Proportional.IsZero() && cfg.MaxCumulative.IsZero() {
		return nil
	}
	var integral *pid.Integral
	if !cfg.MaxCumulative.IsZero() {
		integral = pid.NewIntegral(cfg.Integral, cfg.MaxCumulative)
	}
	return pid.New(pid.Config{Proportional: cfg.Proportional, Integral: integral})
}

func splitPairSpec(spec string) (currency.PairType, string, error) {
	parts := strings.SplitN(spec, "=", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("gridback: expected pair=path, got %q", spec)
	}
	pair, ok := pairNames[strings.TrimSpace(parts[0])]
	if !ok {
		return 0, "", fmt.Errorf("gridback: unknown pair %q", parts[0])
	}
	return pair, strings.TrimSpace(parts[1]), nil
}

// loadKlineCSV reads rows of open_time,open,high,low,close (RFC3339
// timestamp, decimal columns; an optional header row starting with
// "open_time" is skipped) into source.
func loadKlineCSV(source *data.MemorySource, pair currency.PairType, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "open_time" {
			continue
		}
		if len(row) < 5 {
			return fmt.Errorf("%s:%d: expected at least 5 columns, got %d", path, i+1, len(row))
		}
		openTime, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		open, err := decimal.NewFromString(row[1])
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		high, err := decimal.NewFromString(row[2])
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		low, err := decimal.NewFromString(row[3])
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		closePrice, err := decimal.NewFromString(row[4])
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		source.InsertKline(pair, data.Candle{
			OpenTime:  openTime,
			CloseTime: openTime.Add(time.Minute),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
		})
	}
	return nil
}

// loadFundingRateCSV reads rows of at,rate (RFC3339 timestamp, decimal
// rate; an optional header row starting with "at" is skipped) into
// source.
func loadFundingRateCSV(source *data.MemorySource, pair currency.PairType, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "at" {
			continue
		}
		if len(row) < 2 {
			return fmt.Errorf("%s:%d: expected 2 columns, got %d", path, i+1, len(row))
		}
		at, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		rate, err := decimal.NewFromString(row[1])
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, i+1, err)
		}
		source.InsertFundingRate(pair, at, rate)
	}
	return nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}
