package asset

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/ridgeline-quant/gridback/currency"
)

// TypeMismatchError is returned by merge when the two operands are of
// different AssetTypes. It carries the asset that was rejected so the
// caller never loses it on an error path.
type TypeMismatchError struct {
	Actual   currency.AssetType
	Expected currency.AssetType
	Returned Asset
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("asset: type mismatch: got %s, want %s", e.Actual, e.Expected)
}

// NotEnoughError is returned by split when the asset's balance is
// smaller than the requested split amount.
type NotEnoughError struct {
	Remain   decimal.Decimal
	Required decimal.Decimal
}

func (e *NotEnoughError) Error() string {
	return fmt.Sprintf("asset: balance not enough: have %s, need %s", e.Remain, e.Required)
}
