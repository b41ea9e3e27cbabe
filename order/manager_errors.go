package order

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// UUIDNotFoundError is returned when an id does not exist in the order pool.
type UUIDNotFoundError struct {
	ID uuid.UUID
}

func (e *UUIDNotFoundError) Error() string { return fmt.Sprintf("order manager: id %s not found", e.ID) }

// InsertOrderFailError is returned by InsertOrder on a duplicate id. It
// carries the order that already occupied the slot.
type InsertOrderFailError struct {
	Existing Order
}

func (e *InsertOrderFailError) Error() string {
	return fmt.Sprintf("order manager: duplicate id %s", e.Existing.ID)
}

// UUIDVecEmptyError indicates a price level's FIFO deque was found
// empty where the structural invariant requires at least one id — a
// bug, not a recoverable user error.
type UUIDVecEmptyError struct {
	Action Action
	Price  decimal.Decimal
}

func (e *UUIDVecEmptyError) Error() string {
	return fmt.Sprintf("order manager: empty id list at price %s (%s side)", e.Price, e.Action)
}

// UUIDNotInOrdersError indicates a price-level index pointed at an id
// absent from the order pool — a structural invariant violation.
type UUIDNotInOrdersError struct {
	Action Action
	Price  decimal.Decimal
	ID     uuid.UUID
}

func (e *UUIDNotInOrdersError) Error() string {
	return fmt.Sprintf("order manager: id %s indexed at price %s (%s side) missing from pool", e.ID, e.Price, e.Action)
}

// FinishedOrderStateError is returned by AddFinishedOrder when the
// supplied order is not in the Executed state.
type FinishedOrderStateError struct {
	Actual State
}

func (e *FinishedOrderStateError) Error() string {
	return fmt.Sprintf("order manager: cannot record finished order in state %s", e.Actual)
}
