package strategyorder

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
)

// IDNotFoundError is returned when a strategy order id has no entry.
type IDNotFoundError struct {
	ID uuid.UUID
}

func (e *IDNotFoundError) Error() string {
	return fmt.Sprintf("strategy order manager: id %s not found", e.ID)
}

// OrderIDNotFoundError is returned when a book order id has no
// corresponding strategy order in the index.
type OrderIDNotFoundError struct {
	OrderID uuid.UUID
}

func (e *OrderIDNotFoundError) Error() string {
	return fmt.Sprintf("strategy order manager: order id %s not indexed", e.OrderID)
}

// OpenedVecEmptyError indicates an opened-index price level was found
// with an empty id list — a structural invariant violation.
type OpenedVecEmptyError struct {
	Direction asset.Direction
	Price     decimal.Decimal
}

func (e *OpenedVecEmptyError) Error() string {
	return fmt.Sprintf("strategy order manager: empty opened list at price %s (%s)", e.Price, e.Direction)
}

// OpenedIDNotInPoolError indicates an opened-index entry pointed at a
// strategy order id absent from the pool.
type OpenedIDNotInPoolError struct {
	Direction asset.Direction
	Price     decimal.Decimal
	ID        uuid.UUID
}

func (e *OpenedIDNotInPoolError) Error() string {
	return fmt.Sprintf("strategy order manager: opened id %s at price %s (%s) missing from pool", e.ID, e.Price, e.Direction)
}
