// Package engine implements the tick-stepped back-test driver: per-pair
// fill settlement against each new candle, strategy invocation, action
// sync against the order book, and (for LeveragedDriver) mark-to-market
// and liquidation of leveraged positions.
//
// Grounded on spec.md §4.5's back-test loop and original_source/src's
// runner crates (runner/back_trade, data_runtime/order) for the
// settle -> run -> sync -> verify tick shape.
package engine

import (
	"fmt"
	"time"

	"github.com/ridgeline-quant/gridback/currency"
)

// OrderActionError wraps a failure applying one of a strategy's
// requested Actions (an order that cannot be built, a rejected book
// insert) during sync. The tick continues with the remaining actions; this action's
// SyncActionResult is simply omitted.
type OrderActionError struct {
	Pair currency.PairType
	Err  error
}

func (e *OrderActionError) Error() string {
	return fmt.Sprintf("engine: applying action for %s: %v", e.Pair, e.Err)
}

func (e *OrderActionError) Unwrap() error { return e.Err }

// AssetLockedNotEnoughError is returned when a strategy's NewOrder
// requests collateral the order's own quantity rule rejects (the
// Submit-time check surfaced up through sync, so the driver can log
// which pair/user hit it rather than just discarding the order silently).
type AssetLockedNotEnoughError struct {
	Pair currency.PairType
	Err  error
}

func (e *AssetLockedNotEnoughError) Error() string {
	return fmt.Sprintf("engine: insufficient collateral for %s order: %v", e.Pair, e.Err)
}

func (e *AssetLockedNotEnoughError) Unwrap() error { return e.Err }

// MarginMustBeBtcOrUsdtError guards the invariant that a leveraged
// pair's margin currency is always its quote currency, which this
// module's AssetType enum only ever resolves to Usdt or Btc. It exists
// to fail loudly rather than silently misprice a position if that enum
// is ever extended.
type MarginMustBeBtcOrUsdtError struct {
	Pair currency.PairType
	Got  currency.AssetType
}

func (e *MarginMustBeBtcOrUsdtError) Error() string {
	return fmt.Sprintf("engine: margin for %s must be BTC or USDT, got %s", e.Pair, e.Got)
}

// KlineMissingError records a pair/time the configured data.Source had
// no candle for; the driver skips the whole minute (fill settlement,
// strategy invocation and recording for every pair) and moves on;
// per-user state is left untouched rather than partially advanced.
type KlineMissingError struct {
	Pair currency.PairType
	At   time.Time
}

func (e *KlineMissingError) Error() string {
	return fmt.Sprintf("engine: no kline for %s at %s", e.Pair, e.At.Format(time.RFC3339))
}
