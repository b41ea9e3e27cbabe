package engine

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/config"
	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/data"
	"github.com/ridgeline-quant/gridback/order"
	"github.com/ridgeline-quant/gridback/strategy"
	"github.com/ridgeline-quant/gridback/user"
)

// Recorder receives one TickRecord per user per pair per tick, for
// whatever downstream consumer (the report package's CSV writer, a
// test spy) wants to observe the run.
type Recorder interface {
	Record(TickRecord)
}

// postPairHook runs after a pair's settle/run/sync/verify step for one
// user, letting LeveragedDriver fold in mark-to-market and liquidation
// without duplicating the tick loop.
type postPairHook func(d *Driver, pair currency.PairType, candle data.Candle, u *user.User)

// Driver runs the deterministic minute-by-minute back-test loop over a
// fixed set of trading pairs and users. Use NewDriver for a spot-only
// run, or NewLeveragedDriver (which wraps a Driver with an extra
// mark-to-market/liquidation step) for futures pairs.
//
// Grounded on spec.md §4.5's per-minute algorithm: per pair, settle
// fills against the new candle, ask the strategy to Run, sync its
// actions against the book (cancels before inserts), then Verify.
type Driver struct {
	Source data.Source
	Users  []*user.User
	Config config.Config
	Debug  config.DebugConfig
	Pairs  []currency.PairType

	Recorder Recorder

	prices map[currency.PairType]decimal.Decimal

	postPairHook postPairHook
}

// NewDriver returns a Driver that ticks pairs for the given users from
// cfg.DateFrom to cfg.DateTo in cfg.SamplePeriod steps.
func NewDriver(source data.Source, users []*user.User, cfg config.Config, debug config.DebugConfig, pairs []currency.PairType, recorder Recorder) *Driver {
	return &Driver{
		Source:   source,
		Users:    users,
		Config:   cfg,
		Debug:    debug,
		Pairs:    pairs,
		Recorder: recorder,
		prices:   make(map[currency.PairType]decimal.Decimal),
	}
}

// Run steps the configured window one sample period at a time until
// ctx is canceled or the window is exhausted.
func (d *Driver) Run(ctx context.Context) error {
	for t := d.Config.DateFrom; t.Before(d.Config.DateTo); t = t.Add(d.Config.SamplePeriod) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		d.tick(t)
	}
	return nil
}

// tick advances every pair, for every user, by one sample period. If
// any pair has no candle at t, the whole tick is skipped before any
// user state is touched.
func (d *Driver) tick(t time.Time) {
	candles := make(map[currency.PairType]data.Candle, len(d.Pairs))
	for _, pair := range d.Pairs {
		candle, err := d.Source.GetKline(pair, t)
		if err != nil {
			if d.Debug.IsInfo {
				log.Info().Err(&KlineMissingError{Pair: pair, At: t}).Msg("engine: skipping tick")
			}
			return
		}
		candles[pair] = candle
	}

	for _, pair := range d.Pairs {
		candle := candles[pair]
		d.prices[pair] = candle.Close

		fundingRate, hasFunding := d.Source.GetFundingRate(pair, t)

		for _, u := range d.Users {
			orderResults := d.tickPairForUser(pair, candle, fundingRate, hasFunding, u)
			if d.postPairHook != nil {
				d.postPairHook(d, pair, candle, u)
			}
			if d.Recorder != nil {
				d.Recorder.Record(d.buildTickRecord(t, pair, u, orderResults))
			}
		}
	}
}

// tickPairForUser runs one user's settle -> strategy.Run -> sync ->
// strategy.Verify sequence for one pair.
func (d *Driver) tickPairForUser(pair currency.PairType, candle data.Candle, fundingRate decimal.Decimal, hasFunding bool, u *user.User) []strategy.OrderResult {
	book := u.TPOrderMap.GetOrCreate(pair)

	orderResults := d.settleFills(pair, book, candle, u)

	parseResult := strategy.ParseKlineResult{
		Pair:         pair,
		NewKline:     candle,
		FundingRate:  fundingRate,
		HasFunding:   hasFunding,
		OrderResults: orderResults,
	}

	actions := u.Strategy.Run(u.TPOrderMap, u.AvailableAssets, parseResult, d.Debug)
	syncResults := d.syncStrategyAction(pair, book, actions, u)
	u.Strategy.Verify(pair, syncResults, d.Debug)

	return orderResults
}

// fee returns the maker-fee amount for a just-crossed order, already
// USDT-denominated: order.Amount (price*quantity, quote-denominated)
// for the BTC/USDT pairs whose quote currency is USDT, or
// order.Quantity (the coin-margined contract's USD-notional base
// quantity, USDT-denominated by CM-contract convention) for the
// coin-margined pair. Both forms are USDT by construction for this
// module's three-pair universe, so no further trading_pair_prices
// conversion is needed — see DESIGN.md's fee-denomination write-up.
func (d *Driver) fee(pair currency.PairType, o order.Order) decimal.Decimal {
	if pair == currency.BtcUsdCmFuture {
		return o.Quantity.Mul(d.Config.MakerOrderFee)
	}
	return o.Amount.Mul(d.Config.MakerOrderFee)
}

// settleFills executes every resting order crossed by candle's
// low/high range, in price-priority then FIFO order, and credits the
// resulting asset to u.AvailableAssets. Only maker fills at resting
// price are modeled; there are no partial fills or slippage.
func (d *Driver) settleFills(pair currency.PairType, book *order.Manager, candle data.Candle, u *user.User) []strategy.OrderResult {
	var results []strategy.OrderResult

	for {
		o, err := book.PeekHighestBuyOrder()
		if err != nil || o.Price.LessThan(candle.Low) {
			break
		}
		o, err = book.PopHighestBuyOrder()
		if err != nil {
			break
		}
		results = append(results, d.executeFill(pair, book, o, u))
	}

	for {
		o, err := book.PeekLowestSellOrder()
		if err != nil || o.Price.GreaterThan(candle.High) {
			break
		}
		o, err = book.PopLowestSellOrder()
		if err != nil {
			break
		}
		results = append(results, d.executeFill(pair, book, o, u))
	}

	return results
}

// executeFill settles one crossed order: the locked collateral is
// consumed, the fee is recorded against the book's running total in
// USDT, and the proceeds are credited to the user.
//
// Spot fills credit a fresh base (buy) or quote (sell) balance net of
// the maker fee; the locked collateral that funded the trade is spent,
// not returned. Leveraged fills simply unlock the margin-backed
// LeveragedAsset that Submit already constructed — the position itself
// is the proceeds.
func (d *Driver) executeFill(pair currency.PairType, book *order.Manager, o order.Order, u *user.User) strategy.OrderResult {
	feeAmount := d.fee(pair, o)
	paidFee := &asset.Asset{Type: currency.Usdt, Balance: feeAmount}

	released, err := o.Execute(paidFee)
	if err != nil {
		log.Error().Err(err).Str("pair", pair.String()).Msg("engine: executing crossed order")
		return strategy.OrderResult{Order: o}
	}
	if err := book.AddFinishedOrder(o); err != nil {
		log.Error().Err(err).Str("pair", pair.String()).Msg("engine: recording finished order")
	}

	if pair.IsLeveraged() {
		u.AvailableAssets.MergeAsset(released)
		return strategy.OrderResult{Order: o}
	}

	one := decimal.NewFromInt(1)
	keepRatio := one.Sub(d.Config.MakerOrderFee)
	var received asset.Asset
	if o.Action == order.Buy {
		received = asset.Asset{Type: pair.BaseCurrency(), Balance: o.Quantity.Mul(keepRatio)}
	} else {
		received = asset.Asset{Type: pair.QuoteCurrency(), Balance: o.Amount.Mul(keepRatio)}
	}
	u.AvailableAssets.MergeAsset(asset.FromAsset(received))

	return strategy.OrderResult{Order: o}
}

// syncStrategyAction applies a strategy's requested Actions to the
// book: every cancel first (releasing collateral back to the user),
// then every new order (locking fresh collateral). Ordering cancels
// before inserts is load-bearing: a strategy that cancels a stale quote
// and immediately re-quotes at a tighter price depends on the freed
// collateral being available for the new order in the same tick.
func (d *Driver) syncStrategyAction(pair currency.PairType, book *order.Manager, actions []strategy.Action, u *user.User) []strategy.SyncActionResult {
	var results []strategy.SyncActionResult

	for _, a := range actions {
		if a.IsNewOrder() {
			continue
		}
		cancel := a.CancelOrder()
		o, err := book.RemoveOrder(cancel.OrderID)
		if err != nil {
			if d.Debug.IsDebug {
				log.Debug().Err(err).Str("pair", pair.String()).Msg("engine: canceling order")
			}
			continue
		}
		if released := o.Cancel(); released != nil {
			u.AvailableAssets.MergeAsset(*released)
		}
		results = append(results, strategy.OrderCanceledResult(o))
	}

	for _, a := range actions {
		if !a.IsNewOrder() {
			continue
		}
		n := a.NewOrder()
		o, strategyOrderID, err := d.placeNewOrder(pair, book, n, u)
		if err != nil {
			if d.Debug.IsDebug {
				log.Debug().Err(err).Str("pair", pair.String()).Msg("engine: placing order")
			}
			continue
		}
		results = append(results, strategy.OrderPlacedResult(o, strategyOrderID))
	}

	return results
}

// placeNewOrder carves the requested collateral out of u's available
// assets, builds and submits the order, and inserts it into book.
func (d *Driver) placeNewOrder(pair currency.PairType, book *order.Manager, n strategy.NewOrder, u *user.User) (order.Order, *uuid.UUID, error) {
	collateral, err := d.collateralFor(pair, n, u)
	if err != nil {
		return order.Order{}, nil, &AssetLockedNotEnoughError{Pair: pair, Err: err}
	}

	o, err := order.New(pair, n.Price, n.BaseQuantity, n.Action)
	if err != nil {
		return order.Order{}, nil, &OrderActionError{Pair: pair, Err: err}
	}
	if err := o.Submit(collateral); err != nil {
		u.AvailableAssets.MergeAsset(asset.FromAsset(collateral))
		return order.Order{}, nil, &AssetLockedNotEnoughError{Pair: pair, Err: err}
	}
	if err := book.InsertOrder(o); err != nil {
		return order.Order{}, nil, &OrderActionError{Pair: pair, Err: err}
	}
	return o, n.StrategyOrderID, nil
}

// collateralFor computes and splits the quote/base collateral a
// NewOrder requires out of u.AvailableAssets. Spot buys lock quote
// currency (price*quantity), spot sells lock base currency (quantity).
// Leveraged orders of either side lock MarginQuantity of the pair's
// quote currency, which Order.Submit wraps into a LeveragedAsset sized
// to BaseQuantity/Price.
func (d *Driver) collateralFor(pair currency.PairType, n strategy.NewOrder, u *user.User) (asset.Asset, error) {
	var t currency.AssetType
	var amount decimal.Decimal

	switch {
	case pair.IsLeveraged():
		t = pair.QuoteCurrency()
		if t != currency.Usdt && t != currency.Btc {
			return asset.Asset{}, &MarginMustBeBtcOrUsdtError{Pair: pair, Got: t}
		}
		amount = n.MarginQuantity
	case n.Action == order.Buy:
		t = pair.QuoteCurrency()
		amount = n.Price.Mul(n.BaseQuantity)
	default:
		t = pair.BaseCurrency()
		amount = n.BaseQuantity
	}

	if _, err := u.AvailableAssets.Get(t); err != nil {
		u.AvailableAssets.MergeAsset(asset.FromAsset(asset.New(t)))
	}
	split, err := u.AvailableAssets.SplitAllowNegative(t, amount)
	if err != nil {
		return asset.Asset{}, err
	}
	return split.Spot(), nil
}
