// Package strategy defines the contract the back-test driver invokes
// each tick, plus the request/result types that cross the
// driver/strategy boundary.
//
// Grounded on spec.md §4.6 / original_source/src/strategy/mod.rs's
// TStrategy trait (run/verify/get_log_info/get_position).
package strategy

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/config"
	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/data"
	"github.com/ridgeline-quant/gridback/order"
)

// OrderResult reports a single book-order outcome produced by
// settling fills against one tick's candle. Partial fills and
// slippage are out of scope, so every result here is a full
// execution.
type OrderResult struct {
	Order order.Order
}

// ParseKlineResult is what the driver hands a strategy's Run each
// tick: the new candle and funding rate for one pair, plus every
// order the driver's fill settlement executed against it.
type ParseKlineResult struct {
	Pair         currency.PairType
	NewKline     data.Candle
	FundingRate  decimal.Decimal
	HasFunding   bool
	OrderResults []OrderResult
}

// SyncActionResult reports the outcome of applying one of a
// strategy's requested Actions: either the order was placed (and, for
// a close leg, which StrategyOrder it closes), or it was canceled.
type SyncActionResult struct {
	isPlaced        bool
	placedOrder     order.Order
	strategyOrderID *uuid.UUID
	canceledOrder   order.Order
}

// OrderPlacedResult wraps a successfully placed order. strategyOrderID
// is non-nil when the order is a close leg binding an existing
// StrategyOrder.
func OrderPlacedResult(o order.Order, strategyOrderID *uuid.UUID) SyncActionResult {
	return SyncActionResult{isPlaced: true, placedOrder: o, strategyOrderID: strategyOrderID}
}

// OrderCanceledResult wraps a successfully canceled order.
func OrderCanceledResult(o order.Order) SyncActionResult {
	return SyncActionResult{isPlaced: false, canceledOrder: o}
}

// IsPlaced reports whether this result is a placement rather than a cancellation.
func (r SyncActionResult) IsPlaced() bool { return r.isPlaced }

// Order returns the placed or canceled order, depending on IsPlaced.
func (r SyncActionResult) Order() order.Order {
	if r.isPlaced {
		return r.placedOrder
	}
	return r.canceledOrder
}

// StrategyOrderID returns the bound StrategyOrder id for a close-leg
// placement, or nil for an open leg or a cancellation.
func (r SyncActionResult) StrategyOrderID() *uuid.UUID { return r.strategyOrderID }

// LogInfo is the per-tick telemetry a strategy exposes for reporting.
type LogInfo struct {
	TargetPositionRatio decimal.Decimal
}

// Strategy is the contract the driver invokes once per pair per tick.
type Strategy interface {
	// Run inspects the book, available collateral, and this tick's
	// fill results, and returns the actions to apply.
	Run(tpOrderMap *order.PairMap, availableAssets *asset.Map, parseResult ParseKlineResult, debug config.DebugConfig) []Action

	// Verify lets the strategy update its StrategyOrderManager after
	// the driver has applied Run's actions to the book.
	Verify(pair currency.PairType, syncResults []SyncActionResult, debug config.DebugConfig)

	// GetLogInfo reports the strategy's current telemetry for the tick log.
	GetLogInfo() LogInfo

	// GetPosition returns the strategy's target position ratio at t,
	// or ok=false if the underlying model has no prediction for t.
	GetPosition(t time.Time) (decimal.Decimal, bool)
}
