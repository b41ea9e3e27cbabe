// Package user binds one participant's available collateral, per-pair
// order books, and strategy instance into the aggregate the driver
// ticks each minute.
//
// Grounded on spec.md §3's User data model (id, name, available_assets,
// tp_order_map, strategy).
package user

import (
	"github.com/gofrs/uuid"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/order"
	"github.com/ridgeline-quant/gridback/strategy"
)

// User is one participant in a back-test run: a name, available
// (unlocked) collateral, one order book per trading pair, and the
// strategy instance that drives it.
type User struct {
	ID              uuid.UUID
	Name            string
	AvailableAssets *asset.Map
	TPOrderMap      *order.PairMap
	Strategy        strategy.Strategy
}

// New returns a fresh User with an empty asset map and order book map.
func New(name string, strat strategy.Strategy) (*User, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &User{
		ID:              id,
		Name:            name,
		AvailableAssets: asset.NewMap(),
		TPOrderMap:      order.NewPairMap(),
		Strategy:        strat,
	}, nil
}

// TotalAssets returns available collateral plus every pair's locked
// collateral, summed pointwise — the balance the driver's per-tick
// record reads for its totals and actual position ratio.
func (u *User) TotalAssets() *asset.Map {
	return u.AvailableAssets.Add(u.TPOrderMap.CalculateTotalAssets())
}
