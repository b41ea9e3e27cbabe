package strategy

import (
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/order"
)

// NewOrder requests that the driver place a fresh book order. A nil
// StrategyOrderID marks an open leg that should spawn a fresh
// StrategyOrder once the order is placed; a non-nil id names the
// StrategyOrder this order closes.
type NewOrder struct {
	StrategyOrderID *uuid.UUID
	Pair            currency.PairType
	Action          order.Action
	Price           decimal.Decimal
	BaseQuantity    decimal.Decimal
	MarginQuantity  decimal.Decimal
}

// CancelOrder requests that the driver cancel a resting book order.
type CancelOrder struct {
	OrderID uuid.UUID
}

// Action is a tagged union of the two requests a Strategy may emit
// from Run: placing a new order, or canceling an existing one.
type Action struct {
	isNewOrder bool
	newOrder   NewOrder
	cancel     CancelOrder
}

// NewOrderAction wraps a NewOrder request.
func NewOrderAction(n NewOrder) Action {
	return Action{isNewOrder: true, newOrder: n}
}

// CancelOrderAction wraps a CancelOrder request.
func CancelOrderAction(id uuid.UUID) Action {
	return Action{isNewOrder: false, cancel: CancelOrder{OrderID: id}}
}

// IsNewOrder reports whether this action places a new order rather
// than canceling one.
func (a Action) IsNewOrder() bool { return a.isNewOrder }

// NewOrder returns the wrapped request; valid only when IsNewOrder is true.
func (a Action) NewOrder() NewOrder { return a.newOrder }

// CancelOrder returns the wrapped request; valid only when IsNewOrder is false.
func (a Action) CancelOrder() CancelOrder { return a.cancel }
