package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/order"
	"github.com/ridgeline-quant/gridback/strategy"
	"github.com/ridgeline-quant/gridback/user"
)

// AssetBreakdown is one asset type's total/available/locked balance,
// both in native units and USDT-denominated.
type AssetBreakdown struct {
	Type          currency.AssetType
	Total         decimal.Decimal
	Available     decimal.Decimal
	Locked        decimal.Decimal
	TotalUSDT     decimal.Decimal
	AvailableUSDT decimal.Decimal
	LockedUSDT    decimal.Decimal
}

// TickRecord is one user's telemetry for one pair at one tick — the
// row report.Logger turns into a CSV line.
//
// Grounded on spec.md §6's log CSV column list.
type TickRecord struct {
	Time       time.Time
	Pair       currency.PairType
	ClosePrice decimal.Decimal

	UserID   string
	UserName string

	TargetPositionRatio decimal.Decimal
	ActualPositionRatio decimal.Decimal

	UnfulfilledBuyCount   int
	UnfulfilledBuyVolume  decimal.Decimal
	UnfulfilledSellCount  int
	UnfulfilledSellVolume decimal.Decimal

	ExecutedBuyCount    int
	ExecutedBuyVolume   decimal.Decimal
	ExecutedSellCount   int
	ExecutedSellVolume  decimal.Decimal

	TotalUSDT     decimal.Decimal
	AvailableUSDT decimal.Decimal
	LockedUSDT    decimal.Decimal
	FeeUSDT       decimal.Decimal

	Assets []AssetBreakdown
}

// DenominateUSDT converts a balance of type t to its USDT value using
// the driver's cached trading-pair close prices, per spec §6:
//   - Usdt: as-is.
//   - Btc: balance * price(BtcUsdt).
//   - BtcUsdtFuture: balance * price(BtcUsdtFuture).
//   - BtcUsdCmFuture: balance * price(BtcUsdCmFuture), itself Btc-denominated,
//     then converted through price(BtcUsdt).
func (d *Driver) DenominateUSDT(t currency.AssetType, balance decimal.Decimal) decimal.Decimal {
	switch t {
	case currency.Usdt:
		return balance
	case currency.Btc:
		return balance.Mul(d.prices[currency.BtcUsdt])
	case currency.BtcUsdtFuture:
		return balance.Mul(d.prices[currency.BtcUsdtFuture])
	case currency.BtcUsdCmFuture:
		btcValue := balance.Mul(d.prices[currency.BtcUsdCmFuture])
		return btcValue.Mul(d.prices[currency.BtcUsdt])
	default:
		return decimal.Zero
	}
}

// buildTickRecord assembles one user's TickRecord for pair at t, using
// this tick's fill results to count/volume unfulfilled vs executed
// orders on each side.
func (d *Driver) buildTickRecord(t time.Time, pair currency.PairType, u *user.User, fills []strategy.OrderResult) TickRecord {
	book := u.TPOrderMap.GetOrCreate(pair)

	rec := TickRecord{
		Time:       t,
		Pair:       pair,
		ClosePrice: d.prices[pair],
		UserID:     u.ID.String(),
		UserName:   u.Name,
	}

	rec.TargetPositionRatio = u.Strategy.GetLogInfo().TargetPositionRatio
	rec.ActualPositionRatio = d.actualPositionRatio(pair, u)

	for _, fill := range fills {
		volume := fill.Order.Amount
		if fill.Order.Action == order.Buy {
			rec.ExecutedBuyCount++
			rec.ExecutedBuyVolume = rec.ExecutedBuyVolume.Add(volume)
		} else {
			rec.ExecutedSellCount++
			rec.ExecutedSellVolume = rec.ExecutedSellVolume.Add(volume)
		}
	}
	for _, resting := range restingOrders(book) {
		volume := resting.Amount
		if resting.Action == order.Buy {
			rec.UnfulfilledBuyCount++
			rec.UnfulfilledBuyVolume = rec.UnfulfilledBuyVolume.Add(volume)
		} else {
			rec.UnfulfilledSellCount++
			rec.UnfulfilledSellVolume = rec.UnfulfilledSellVolume.Add(volume)
		}
	}

	totalFee := u.TPOrderMap.CalculateTotalFees()

	var totalUSDT, availableUSDT, lockedUSDT, feeUSDT decimal.Decimal
	var breakdowns []AssetBreakdown

	locked := book.CalculateTotalAssets()
	total := u.TotalAssets()

	for _, at := range []currency.AssetType{currency.Usdt, currency.Btc, currency.BtcUsdtFuture, currency.BtcUsdCmFuture} {
		var availBal, lockedBal, totalBal decimal.Decimal
		if union, err := u.AvailableAssets.Get(at); err == nil {
			availBal = union.Balance()
		}
		if union, err := locked.Get(at); err == nil {
			lockedBal = union.Balance()
		}
		if union, err := total.Get(at); err == nil {
			totalBal = union.Balance()
		}
		breakdowns = append(breakdowns, AssetBreakdown{
			Type:          at,
			Total:         totalBal,
			Available:     availBal,
			Locked:        lockedBal,
			TotalUSDT:     d.DenominateUSDT(at, totalBal),
			AvailableUSDT: d.DenominateUSDT(at, availBal),
			LockedUSDT:    d.DenominateUSDT(at, lockedBal),
		})
		totalUSDT = totalUSDT.Add(d.DenominateUSDT(at, totalBal))
		availableUSDT = availableUSDT.Add(d.DenominateUSDT(at, availBal))
		lockedUSDT = lockedUSDT.Add(d.DenominateUSDT(at, lockedBal))

		if feeUnion, err := totalFee.Get(at); err == nil {
			feeUSDT = feeUSDT.Add(d.DenominateUSDT(at, feeUnion.Balance()))
		}
	}

	rec.TotalUSDT = totalUSDT
	rec.AvailableUSDT = availableUSDT
	rec.LockedUSDT = lockedUSDT
	rec.FeeUSDT = feeUSDT
	rec.Assets = breakdowns

	return rec
}

// actualPositionRatio returns base_value / (base_value + quote_value)
// across a user's total (available + locked) holdings of pair's two
// currencies.
func (d *Driver) actualPositionRatio(pair currency.PairType, u *user.User) decimal.Decimal {
	total := u.TotalAssets()
	price := d.prices[pair]

	var baseBalance, quoteBalance decimal.Decimal
	if union, err := total.Get(pair.BaseCurrency()); err == nil {
		baseBalance = union.Balance()
	}
	if union, err := total.Get(pair.QuoteCurrency()); err == nil {
		quoteBalance = union.Balance()
	}

	baseValue := baseBalance.Mul(price)
	denominator := baseValue.Add(quoteBalance)
	if denominator.IsZero() {
		return decimal.Zero
	}
	return baseValue.Div(denominator)
}

// restingOrders snapshots every order still resting in book, for
// unfulfilled-count/volume reporting.
func restingOrders(book *order.Manager) []order.Order {
	var out []order.Order
	book.Each(func(o order.Order) { out = append(out, o) })
	return out
}
