package asset

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/ridgeline-quant/gridback/currency"
)

// MarginAssetTypeMismatchError is returned by NewLeveraged and
// MarginTopUp when a margin asset's type does not match the pair's
// quote currency (or the position's existing margin type).
type MarginAssetTypeMismatchError struct {
	Actual   currency.AssetType
	Expected currency.AssetType
	Returned Asset
}

func (e *MarginAssetTypeMismatchError) Error() string {
	return fmt.Sprintf("leveraged asset: margin type mismatch: got %s, want %s", e.Actual, e.Expected)
}

// MarginTypeMismatchError is returned by Merge when two positions'
// margin asset types differ.
type MarginTypeMismatchError struct {
	Actual   currency.AssetType
	Expected currency.AssetType
	Returned LeveragedAsset
}

func (e *MarginTypeMismatchError) Error() string {
	return fmt.Sprintf("leveraged asset: margin type mismatch: got %s, want %s", e.Actual, e.Expected)
}

// PairTypeMismatchError is returned by Merge when two positions are on
// different trading pairs.
type PairTypeMismatchError struct {
	Actual   currency.PairType
	Expected currency.PairType
	Returned LeveragedAsset
}

func (e *PairTypeMismatchError) Error() string {
	return fmt.Sprintf("leveraged asset: trading pair mismatch: got %s, want %s", e.Actual, e.Expected)
}

// BaseTypeMismatchError is returned by Merge when the base asset types differ.
type BaseTypeMismatchError struct {
	Actual   currency.AssetType
	Expected currency.AssetType
	Returned LeveragedAsset
}

func (e *BaseTypeMismatchError) Error() string {
	return fmt.Sprintf("leveraged asset: base type mismatch: got %s, want %s", e.Actual, e.Expected)
}

// QuoteTypeMismatchError is returned by Merge when the quote asset types differ.
type QuoteTypeMismatchError struct {
	Actual   currency.AssetType
	Expected currency.AssetType
	Returned LeveragedAsset
}

func (e *QuoteTypeMismatchError) Error() string {
	return fmt.Sprintf("leveraged asset: quote type mismatch: got %s, want %s", e.Actual, e.Expected)
}

// MarginNotEnoughError is returned by MarginWithdraw when the margin
// balance is smaller than the requested withdrawal.
type MarginNotEnoughError struct {
	Remain   decimal.Decimal
	Required decimal.Decimal
}

func (e *MarginNotEnoughError) Error() string {
	return fmt.Sprintf("leveraged asset: margin not enough: have %s, need %s", e.Remain, e.Required)
}
