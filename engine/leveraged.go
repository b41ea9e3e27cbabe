package engine

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/config"
	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/data"
	"github.com/ridgeline-quant/gridback/user"
)

// FundingHook settles a funding payment against pos, given the funding
// rate the data source reported for the position's pair this tick. It
// is invoked before pos is marked to the new close.
type FundingHook func(pos *asset.LeveragedAsset, fundingRate decimal.Decimal)

// LeveragedDriver wraps a Driver to additionally mark every held
// leveraged position to the new candle's close and force-close any
// position the candle's low/high range crosses the liquidation price
// of, after each pair's settle/run/sync/verify step.
//
// See DESIGN.md's "Liquidation" entry for the decided policy this
// implements.
type LeveragedDriver struct {
	*Driver

	// ApplyFunding, if set, is called once per held leveraged position
	// per tick with the funding rate reported for that pair, before
	// the position is marked to the new close. The source's funding
	// series is always parsed and queryable regardless of whether this
	// is set; leaving it nil (the default) settles no funding, since
	// the reference implementation never specified funding settlement
	// semantics either (see DESIGN.md's funding-rate entry).
	ApplyFunding FundingHook
}

// NewLeveragedDriver returns a Driver configured to mark-to-market and
// liquidate leveraged positions on every pair it ticks.
func NewLeveragedDriver(source data.Source, users []*user.User, cfg config.Config, debug config.DebugConfig, pairs []currency.PairType, recorder Recorder) *LeveragedDriver {
	d := NewDriver(source, users, cfg, debug, pairs, recorder)
	ld := &LeveragedDriver{Driver: d}
	d.postPairHook = func(d *Driver, pair currency.PairType, candle data.Candle, u *user.User) {
		ld.markAndLiquidate(pair, candle, u)
	}
	return ld
}

// markAndLiquidate settles any funding due, marks u's leveraged
// position in pair (if any) to candle.Close, then force-closes it at
// the liquidation price if the candle's low/high range crossed it: the
// position is zeroed and removed with no proceeds beyond the
// (now-exhausted) margin, and the event is logged at error level. A
// position that survives the tick is written back with its post-mark
// quote/margin split.
func (ld *LeveragedDriver) markAndLiquidate(pair currency.PairType, candle data.Candle, u *user.User) {
	if !pair.IsLeveraged() {
		return
	}
	t := pair.BaseCurrency()

	union, err := u.AvailableAssets.Get(t)
	if err != nil || union.IsSpot() {
		return
	}
	lev := union.Leveraged()

	if ld.ApplyFunding != nil {
		if rate, ok := ld.Source.GetFundingRate(pair, candle.OpenTime); ok {
			ld.ApplyFunding(&lev, rate)
		}
	}

	lev.Update(candle.Close)

	liq := lev.LiquidationPrice()
	crossed := candle.Low.LessThanOrEqual(liq) && liq.LessThanOrEqual(candle.High)

	if !crossed {
		u.AvailableAssets.Set(asset.FromLeveraged(lev))
		return
	}

	lev.Update(liq)
	log.Error().
		Str("pair", pair.String()).
		Str("user", u.Name).
		Str("liquidation_price", liq.String()).
		Msg("engine: position liquidated")
	u.AvailableAssets.Remove(t)
}
