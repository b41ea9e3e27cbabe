// Package asset implements the spot/leveraged asset algebra: merge,
// split, mark-to-market and margin operations over exact decimal
// balances, plus the mappings that aggregate them per user.
package asset

import (
	"github.com/shopspring/decimal"
	"github.com/ridgeline-quant/gridback/currency"
)

// Asset is a scalar balance of a single AssetType. Balance may be
// negative in intermediate accounting (short exposure, fee pre-charges).
type Asset struct {
	Type    currency.AssetType
	Balance decimal.Decimal
}

// New returns a zero-balance Asset of the given type.
func New(t currency.AssetType) Asset {
	return Asset{Type: t, Balance: decimal.Zero}
}

// Merge adds other's balance into a. If the types differ, a is left
// untouched and other is returned intact inside the error.
func (a *Asset) Merge(other Asset) error {
	if a.Type != other.Type {
		return &TypeMismatchError{Actual: other.Type, Expected: a.Type, Returned: other}
	}
	a.Balance = a.Balance.Add(other.Balance)
	return nil
}

// Split carves out a new Asset of balance q, failing if a's balance is
// smaller than q. On failure a is left untouched.
func (a *Asset) Split(q decimal.Decimal) (Asset, error) {
	if a.Balance.LessThan(q) {
		return Asset{}, &NotEnoughError{Remain: a.Balance, Required: q}
	}
	a.Balance = a.Balance.Sub(q)
	return Asset{Type: a.Type, Balance: q}, nil
}

// SplitAllowNegative unconditionally carves out balance q; a's
// remaining balance may go negative. This is the escape hatch a
// strategy uses when locking collateral it does not yet fully have —
// the deficit is expected to clear as later fills land.
func (a *Asset) SplitAllowNegative(q decimal.Decimal) Asset {
	a.Balance = a.Balance.Sub(q)
	return Asset{Type: a.Type, Balance: q}
}
