package asset

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/ridgeline-quant/gridback/currency"
)

// NotFoundError is returned when a Map has no entry for the requested type.
type NotFoundError struct {
	Type currency.AssetType
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("asset map: no entry for %s", e.Type)
}

// Map is a mapping from AssetType to Union, auto-inserting on merge and
// failing with NotFoundError/NotEnoughError on split.
type Map struct {
	inner map[currency.AssetType]Union
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{inner: make(map[currency.AssetType]Union)}
}

// Get returns the entry for t, or NotFoundError.
func (m *Map) Get(t currency.AssetType) (Union, error) {
	u, ok := m.inner[t]
	if !ok {
		return Union{}, &NotFoundError{Type: t}
	}
	return u, nil
}

// MergeAsset merges other into the map, inserting a new entry if this
// is the first balance seen of its type.
func (m *Map) MergeAsset(other Union) {
	existing, ok := m.inner[other.Type()]
	if !ok {
		m.inner[other.Type()] = other
		return
	}
	_ = existing.Merge(other)
	m.inner[other.Type()] = existing
}

// MergeAssets merges every element of others into the map.
func (m *Map) MergeAssets(others []Union) {
	for _, o := range others {
		m.MergeAsset(o)
	}
}

// SplitAllowNegative carves balance q of type t out of the map. Fails
// with NotFoundError if the type has never been seen.
func (m *Map) SplitAllowNegative(t currency.AssetType, q decimal.Decimal) (Union, error) {
	existing, ok := m.inner[t]
	if !ok {
		return Union{}, &NotFoundError{Type: t}
	}
	split := existing.SplitAllowNegative(q)
	m.inner[t] = existing
	return split, nil
}

// Split carves balance q of type t out of the map, failing with
// NotFoundError if the type has never been seen or NotEnoughError if
// the existing balance cannot cover q. On failure m is left untouched.
func (m *Map) Split(t currency.AssetType, q decimal.Decimal) (Union, error) {
	existing, ok := m.inner[t]
	if !ok {
		return Union{}, &NotFoundError{Type: t}
	}
	split, err := existing.Split(q)
	if err != nil {
		return Union{}, err
	}
	m.inner[t] = existing
	return split, nil
}

// Set unconditionally overwrites the entry for u's type, inserting if
// absent. Unlike MergeAsset this is a replace, not an add — the right
// operation for mark-to-market, which recomputes a LeveragedAsset's
// quote/margin split rather than accumulating into it.
func (m *Map) Set(u Union) {
	m.inner[u.Type()] = u
}

// Remove deletes the entry for t entirely, if present.
func (m *Map) Remove(t currency.AssetType) {
	delete(m.inner, t)
}

// Each calls fn for every (type, union) pair currently in the map.
// Iteration order is unspecified — callers that need determinism
// should sort currency.AllPairs()-derived keys themselves.
func (m *Map) Each(fn func(currency.AssetType, Union)) {
	for k, v := range m.inner {
		fn(k, v)
	}
}

// Add returns a new map containing the pointwise sum of m and other.
func (m *Map) Add(other *Map) *Map {
	result := NewMap()
	m.Each(func(t currency.AssetType, u Union) { result.MergeAsset(u) })
	other.Each(func(t currency.AssetType, u Union) { result.MergeAsset(u) })
	return result
}

// Clone returns a deep-enough copy of m (Union values are copied; no
// shared mutable state remains between m and the clone).
func (m *Map) Clone() *Map {
	result := NewMap()
	for k, v := range m.inner {
		result.inner[k] = v
	}
	return result
}
