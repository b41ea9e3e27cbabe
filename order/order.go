// Package order implements the book-level order lifecycle (pending ->
// unfulfilled -> executed|canceled) and the per-pair order book that
// indexes resting orders by price for O(log N) best-price access and
// cancellation.
package order

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/currency"
)

// Action is the side of a resting order.
type Action int

const (
	Buy Action = iota
	Sell
)

func (a Action) String() string {
	if a == Buy {
		return "BUY"
	}
	return "SELL"
}

// State is the order's position in its lifecycle.
type State int

const (
	Pending State = iota
	Unfulfilled
	Executed
	Canceled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Unfulfilled:
		return "UNFULFILLED"
	case Executed:
		return "EXECUTED"
	case Canceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// StateError is returned whenever an operation is attempted from an
// unexpected state.
type StateError struct {
	Expected State
	Actual   State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("order: expected state %s, got %s", e.Expected, e.Actual)
}

// AssetQuantityNotEnoughError is returned by Submit when the provided
// collateral asset fails the action's quantity rule. The rejected
// asset is returned intact.
type AssetQuantityNotEnoughError struct {
	Type     currency.AssetType
	Required decimal.Decimal
	Provided decimal.Decimal
	Returned asset.Asset
}

func (e *AssetQuantityNotEnoughError) Error() string {
	return fmt.Sprintf("order: asset quantity not enough: type=%s required=%s provided=%s", e.Type, e.Required, e.Provided)
}

// LockedAssetNotExistError is returned by Execute when no asset was
// ever locked via Submit (should be unreachable given state checks).
type LockedAssetNotExistError struct{}

func (e *LockedAssetNotExistError) Error() string { return "order: no locked asset to release" }

// ExecuteWithFeeAssetError is returned by Execute on an order that
// already recorded a paid fee (should be unreachable: Executed is terminal).
type ExecuteWithFeeAssetError struct{}

func (e *ExecuteWithFeeAssetError) Error() string { return "order: order already has a paid fee asset" }

// Order is a single resting limit order against one trading pair.
type Order struct {
	ID           uuid.UUID
	PairType     currency.PairType
	State        State
	Action       Action
	Price        decimal.Decimal
	Quantity     decimal.Decimal
	Amount       decimal.Decimal
	LockedAsset  *asset.Union
	PaidFeeAsset *asset.Asset
}

// New builds a Pending order. Amount is price*quantity.
func New(pairType currency.PairType, price, quantity decimal.Decimal, action Action) (Order, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Order{}, fmt.Errorf("order: generating id: %w", err)
	}
	return Order{
		ID:       id,
		PairType: pairType,
		State:    Pending,
		Action:   action,
		Price:    price,
		Quantity: quantity,
		Amount:   price.Mul(quantity),
	}, nil
}

func (o *Order) checkState(expected State) error {
	if o.State != expected {
		return &StateError{Expected: expected, Actual: o.State}
	}
	return nil
}

// Submit transitions Pending -> Unfulfilled, locking collateral.
//
// Spot buy orders require a positive quote-currency balance (the
// locked amount implies leverage if it differs from price*quantity).
// Spot sell orders require a positive base-currency balance no greater
// than the order quantity. Futures orders of either side require a
// positive margin and wrap the supplied quote-currency margin into a
// LeveragedAsset sized to the order's quantity and price.
func (o *Order) Submit(collateral asset.Asset) error {
	if err := o.checkState(Pending); err != nil {
		return err
	}
	balance := collateral.Balance

	switch o.Action {
	case Buy:
		if balance.LessThanOrEqual(decimal.Zero) {
			return &AssetQuantityNotEnoughError{Type: collateral.Type, Required: decimal.Zero, Provided: balance, Returned: collateral}
		}
	case Sell:
		if balance.LessThanOrEqual(decimal.Zero) || (!o.PairType.IsLeveraged() && balance.GreaterThan(o.Quantity)) {
			return &AssetQuantityNotEnoughError{Type: collateral.Type, Required: o.Quantity, Provided: balance, Returned: collateral}
		}
	}

	if o.PairType.IsLeveraged() {
		leveraged, err := asset.NewLeveraged(o.PairType, o.Quantity, collateral, o.Price)
		if err != nil {
			return fmt.Errorf("order: submitting leveraged collateral: %w", err)
		}
		u := asset.FromLeveraged(leveraged)
		o.LockedAsset = &u
	} else {
		u := asset.FromAsset(collateral)
		o.LockedAsset = &u
	}
	o.State = Unfulfilled
	return nil
}

// Execute transitions Unfulfilled -> Executed, records the fee asset
// charged (zero-balance of the locked asset's type if nil is passed),
// and returns the released collateral.
func (o *Order) Execute(paidFee *asset.Asset) (asset.Union, error) {
	if err := o.checkState(Unfulfilled); err != nil {
		return asset.Union{}, err
	}
	if o.PaidFeeAsset != nil {
		return asset.Union{}, &ExecuteWithFeeAssetError{}
	}
	if o.LockedAsset == nil {
		return asset.Union{}, &LockedAssetNotExistError{}
	}

	released := *o.LockedAsset
	o.LockedAsset = nil
	o.State = Executed

	if paidFee != nil {
		o.PaidFeeAsset = paidFee
	} else {
		zero := asset.Asset{Type: released.Type(), Balance: decimal.Zero}
		o.PaidFeeAsset = &zero
	}
	return released, nil
}

// Cancel transitions to Canceled, releasing any locked collateral.
func (o *Order) Cancel() *asset.Union {
	o.State = Canceled
	released := o.LockedAsset
	o.LockedAsset = nil
	return released
}
