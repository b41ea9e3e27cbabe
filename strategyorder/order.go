// Package strategyorder pairs a book-level opening order with its
// eventual closing order, so a grid-like strategy can track a
// position's lifecycle independent of the book's own order lifecycle.
package strategyorder

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/order"
)

// State is a StrategyOrder's position in its open/close lifecycle.
type State int

const (
	Opening State = iota
	Opened
	Closing
	Closed
	Canceled
)

func (s State) String() string {
	switch s {
	case Opening:
		return "OPENING"
	case Opened:
		return "OPENED"
	case Closing:
		return "CLOSING"
	case Closed:
		return "CLOSED"
	case Canceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// StateError is returned whenever a transition is attempted from an
// unexpected state.
type StateError struct {
	Expected State
	Actual   State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("strategy order: expected state %s, got %s", e.Expected, e.Actual)
}

// StrategyOrder tracks one position from its opening order's
// submission through to its closing order's execution (or
// cancellation at either leg).
type StrategyOrder struct {
	ID        uuid.UUID
	Direction asset.Direction

	OpenOrderID uuid.UUID
	OpenPrice   decimal.Decimal
	Quantity    decimal.Decimal

	ExpectedClosePrice decimal.Decimal
	hasExpectedClose   bool

	CloseOrderID uuid.UUID
	hasClose     bool

	State State
}

// New builds a fresh StrategyOrder in the Opening state from the
// order that will open the position. direction encodes Long for Buy
// opens, Short for Sell opens.
func New(openOrder order.Order, direction asset.Direction) (StrategyOrder, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return StrategyOrder{}, fmt.Errorf("strategy order: generating id: %w", err)
	}
	return StrategyOrder{
		ID:          id,
		Direction:   direction,
		OpenOrderID: openOrder.ID,
		OpenPrice:   openOrder.Price,
		Quantity:    openOrder.Quantity,
		State:       Opening,
	}, nil
}

func (o *StrategyOrder) checkState(expected State) error {
	if o.State != expected {
		return &StateError{Expected: expected, Actual: o.State}
	}
	return nil
}

// Opened transitions Opening -> Opened, marking the open leg as filled.
func (o *StrategyOrder) Opened() error {
	if err := o.checkState(Opening); err != nil {
		return err
	}
	o.State = Opened
	return nil
}

// CancelOpen transitions Opening -> Canceled. The caller is
// responsible for discarding the StrategyOrder after this call.
func (o *StrategyOrder) CancelOpen() error {
	if err := o.checkState(Opening); err != nil {
		return err
	}
	o.State = Canceled
	return nil
}

// BindClose transitions Opened -> Closing, recording the close leg's id.
func (o *StrategyOrder) BindClose(closeOrderID uuid.UUID) error {
	if err := o.checkState(Opened); err != nil {
		return err
	}
	o.CloseOrderID = closeOrderID
	o.hasClose = true
	o.State = Closing
	return nil
}

// Closed transitions Closing -> Closed.
func (o *StrategyOrder) Closed() error {
	if err := o.checkState(Closing); err != nil {
		return err
	}
	o.State = Closed
	return nil
}

// CancelClose transitions Closing -> Opened, restoring the order to
// the opened pool (the caller must re-run the collision-stepping
// insertion to recompute ExpectedClosePrice).
func (o *StrategyOrder) CancelClose() error {
	if err := o.checkState(Closing); err != nil {
		return err
	}
	o.hasClose = false
	o.State = Opened
	return nil
}

// SetExpectedClosePrice records the close price the collision-stepping
// algorithm assigned this order.
func (o *StrategyOrder) SetExpectedClosePrice(price decimal.Decimal) {
	o.ExpectedClosePrice = price
	o.hasExpectedClose = true
}

// ClearExpectedClosePrice unsets the expected close price.
func (o *StrategyOrder) ClearExpectedClosePrice() {
	o.ExpectedClosePrice = decimal.Decimal{}
	o.hasExpectedClose = false
}

// HasExpectedClosePrice reports whether an expected close price is
// currently registered.
func (o *StrategyOrder) HasExpectedClosePrice() bool { return o.hasExpectedClose }

// HasCloseOrder reports whether a close leg has been bound.
func (o *StrategyOrder) HasCloseOrder() bool { return o.hasClose }
