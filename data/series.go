package data

import (
	"time"

	"github.com/google/btree"
)

// seriesItem pairs a timestamp key with its value for btree ordering.
type seriesItem[T any] struct {
	at    time.Time
	value T
}

// Series is a generic ordered-by-timestamp store. It replaces the
// Rust original's pattern of a BTreeMap<DateTime<Local>, Unit> that
// recurs identically for candles and funding rates
// (original_source/src/data/kline.rs and funding_rate.rs) with one
// generic type, backed by the same google/btree structure used for
// the order book's price indices.
type Series[T any] struct {
	tree *btree.BTreeG[seriesItem[T]]
}

// NewSeries returns an empty, time-ordered series.
func NewSeries[T any]() *Series[T] {
	less := func(a, b seriesItem[T]) bool { return a.at.Before(b.at) }
	return &Series[T]{tree: btree.NewG[seriesItem[T]](32, less)}
}

// Insert records value at timestamp at, replacing any prior entry.
func (s *Series[T]) Insert(at time.Time, value T) {
	s.tree.ReplaceOrInsert(seriesItem[T]{at: at, value: value})
}

// Get returns the value recorded at exactly at, if any.
func (s *Series[T]) Get(at time.Time) (T, bool) {
	item, ok := s.tree.Get(seriesItem[T]{at: at})
	return item.value, ok
}

// Range calls fn for every entry with timestamp in [from, to],
// inclusive on both ends, in ascending time order. Iteration stops
// early if fn returns false.
func (s *Series[T]) Range(from, to time.Time, fn func(at time.Time, value T) bool) {
	s.tree.AscendRange(
		seriesItem[T]{at: from},
		seriesItem[T]{at: to.Add(time.Nanosecond)},
		func(item seriesItem[T]) bool { return fn(item.at, item.value) },
	)
}

// Each calls fn for every entry in ascending time order.
func (s *Series[T]) Each(fn func(at time.Time, value T) bool) {
	s.tree.Ascend(func(item seriesItem[T]) bool { return fn(item.at, item.value) })
}

// Len returns the number of entries in the series.
func (s *Series[T]) Len() int { return s.tree.Len() }

// NormalizeToMinute truncates a timestamp down to the start of its
// minute, matching the Rust original's funding-rate key normalization
// (original_source/src/utils.rs's normalize_to_minute, as used by
// SFundingRateData::insert/get).
func NormalizeToMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
