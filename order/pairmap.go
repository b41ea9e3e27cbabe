package order

import (
	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/currency"
)

// PairMap aggregates one book Manager per trading pair, so callers can
// total locked collateral and fees across an entire portfolio.
//
// Grounded on STradingPairOrderManagerMapV3 (original_source/src/data_runtime/order/trading_pair_order_manager_map_v3.rs).
type PairMap struct {
	inner map[currency.PairType]*Manager
}

// NewPairMap returns an empty PairMap.
func NewPairMap() *PairMap {
	return &PairMap{inner: make(map[currency.PairType]*Manager)}
}

// Insert registers a book for pairType, replacing any prior entry.
func (p *PairMap) Insert(pairType currency.PairType, m *Manager) {
	p.inner[pairType] = m
}

// Get returns the book for pairType and whether it exists.
func (p *PairMap) Get(pairType currency.PairType) (*Manager, bool) {
	m, ok := p.inner[pairType]
	return m, ok
}

// GetOrCreate returns the existing book for pairType, creating and
// registering an empty one on first access.
func (p *PairMap) GetOrCreate(pairType currency.PairType) *Manager {
	if m, ok := p.inner[pairType]; ok {
		return m
	}
	m := NewManager(pairType)
	p.inner[pairType] = m
	return m
}

// CalculateTotalAssets sums locked collateral across every book.
func (p *PairMap) CalculateTotalAssets() *asset.Map {
	result := asset.NewMap()
	for _, m := range p.inner {
		result = result.Add(m.CalculateTotalAssets())
	}
	return result
}

// CalculateTotalFees sums accumulated fees across every book.
func (p *PairMap) CalculateTotalFees() *asset.Map {
	result := asset.NewMap()
	for _, m := range p.inner {
		result = result.Add(m.CalculateTotalFee())
	}
	return result
}

// Each calls fn for every (pair, book) registered.
func (p *PairMap) Each(fn func(currency.PairType, *Manager)) {
	for k, v := range p.inner {
		fn(k, v)
	}
}
