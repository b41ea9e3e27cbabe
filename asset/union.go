package asset

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/ridgeline-quant/gridback/currency"
)

// Union is a tagged value holding either a spot Asset (Usdt, Btc) or a
// LeveragedAsset (BtcUsdtFuture, BtcUsdCmFuture), giving the rest of the
// engine a single type to pass around regardless of which kind of
// balance an order happens to lock.
type Union struct {
	kind       currency.AssetType
	spot       Asset
	leveraged  LeveragedAsset
	isSpot     bool
}

// FromAsset wraps a spot Asset (type must be Usdt or Btc).
func FromAsset(a Asset) Union {
	return Union{kind: a.Type, spot: a, isSpot: true}
}

// FromLeveraged wraps a LeveragedAsset, tagged by its base currency type.
func FromLeveraged(l LeveragedAsset) Union {
	return Union{kind: l.Base.Type, leveraged: l, isSpot: false}
}

// UnionTypeMismatchError is returned by Union.Merge on a kind mismatch.
type UnionTypeMismatchError struct {
	Actual   currency.AssetType
	Expected currency.AssetType
}

func (e *UnionTypeMismatchError) Error() string {
	return fmt.Sprintf("asset union: type mismatch: got %s, want %s", e.Actual, e.Expected)
}

// Type returns the AssetType this union currently carries.
func (u Union) Type() currency.AssetType { return u.kind }

// IsSpot reports whether this union wraps a scalar Asset rather than a
// LeveragedAsset.
func (u Union) IsSpot() bool { return u.isSpot }

// Spot returns the wrapped Asset; valid only when IsSpot is true.
func (u Union) Spot() Asset { return u.spot }

// Leveraged returns the wrapped LeveragedAsset; valid only when IsSpot
// is false.
func (u Union) Leveraged() LeveragedAsset { return u.leveraged }

// Balance returns the scalar balance (base balance for leveraged
// positions) used for USDT-denomination and total-asset reporting.
func (u Union) Balance() decimal.Decimal {
	if u.isSpot {
		return u.spot.Balance
	}
	return u.leveraged.Base.Balance
}

// Merge combines other into u, dispatching to Asset.Merge or
// LeveragedAsset.Merge depending on kind.
func (u *Union) Merge(other Union) error {
	if u.kind != other.kind {
		return &UnionTypeMismatchError{Actual: other.kind, Expected: u.kind}
	}
	if u.isSpot != other.isSpot {
		return &UnionTypeMismatchError{Actual: other.kind, Expected: u.kind}
	}
	if u.isSpot {
		return u.spot.Merge(other.spot)
	}
	return u.leveraged.Merge(other.leveraged)
}

// SplitAllowNegative carves a balance of q out of u, dispatching to the
// wrapped type's split operation. For leveraged unions, q is a base
// quantity and all three components (base/quote/margin) split
// proportionally.
func (u *Union) SplitAllowNegative(q decimal.Decimal) Union {
	if u.isSpot {
		return Union{kind: u.kind, spot: u.spot.SplitAllowNegative(q), isSpot: true}
	}
	return Union{kind: u.kind, leveraged: u.leveraged.Split(q), isSpot: false}
}

// Split carves a balance of q out of u, failing with NotEnoughError
// and leaving u untouched if it does not have enough to cover it. For
// leveraged unions, q is a base quantity checked against the position's
// base balance by absolute value (a short's base is negative); on
// success all three components split proportionally as
// SplitAllowNegative does.
func (u *Union) Split(q decimal.Decimal) (Union, error) {
	if u.isSpot {
		spot, err := u.spot.Split(q)
		if err != nil {
			return Union{}, err
		}
		return Union{kind: u.kind, spot: spot, isSpot: true}, nil
	}
	if u.leveraged.Base.Balance.Abs().LessThan(q.Abs()) {
		return Union{}, &NotEnoughError{Remain: u.leveraged.Base.Balance, Required: q}
	}
	return Union{kind: u.kind, leveraged: u.leveraged.Split(q), isSpot: false}, nil
}
