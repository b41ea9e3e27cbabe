package data

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/currency"
)

// NotFoundError is returned when no candle exists for the requested
// pair/time, causing the driver to skip the tick entirely.
type NotFoundError struct {
	Pair currency.PairType
	At   time.Time
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("data: no kline for %s at %s", e.Pair, e.At.Format(time.RFC3339))
}

// Source is the driver's read-only view onto market data. The core
// loop calls these once per tick, per pair; the interface is kept
// asynchronous-shaped (returning an error) even though every supplied
// implementation is in-memory, so a database-backed Source can be
// substituted without touching the driver — per spec §6's "DB-backed"
// external interface, scoped out of this module's Non-goals as a
// concrete store but left pluggable here.
type Source interface {
	GetKline(pair currency.PairType, at time.Time) (Candle, error)
	GetFundingRate(pair currency.PairType, at time.Time) (decimal.Decimal, bool)
}

// MemorySource is a Source backed entirely by in-process Series,
// suitable for tests and for CSV-preloaded backtests alike.
type MemorySource struct {
	klines       map[currency.PairType]*Series[Candle]
	fundingRates map[currency.PairType]*Series[decimal.Decimal]
}

// NewMemorySource returns an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		klines:       make(map[currency.PairType]*Series[Candle]),
		fundingRates: make(map[currency.PairType]*Series[decimal.Decimal]),
	}
}

// InsertKline records a candle for pair at its open time.
func (m *MemorySource) InsertKline(pair currency.PairType, c Candle) {
	series, ok := m.klines[pair]
	if !ok {
		series = NewSeries[Candle]()
		m.klines[pair] = series
	}
	series.Insert(c.OpenTime, c)
}

// InsertFundingRate records a funding rate for pair, normalized to the
// start of its minute.
func (m *MemorySource) InsertFundingRate(pair currency.PairType, at time.Time, rate decimal.Decimal) {
	series, ok := m.fundingRates[pair]
	if !ok {
		series = NewSeries[decimal.Decimal]()
		m.fundingRates[pair] = series
	}
	series.Insert(NormalizeToMinute(at), rate)
}

// GetKline returns the candle opening exactly at `at`.
func (m *MemorySource) GetKline(pair currency.PairType, at time.Time) (Candle, error) {
	series, ok := m.klines[pair]
	if !ok {
		return Candle{}, &NotFoundError{Pair: pair, At: at}
	}
	c, ok := series.Get(at)
	if !ok {
		return Candle{}, &NotFoundError{Pair: pair, At: at}
	}
	return c, nil
}

// GetFundingRate returns the funding rate recorded for pair's minute
// containing at, if any.
func (m *MemorySource) GetFundingRate(pair currency.PairType, at time.Time) (decimal.Decimal, bool) {
	series, ok := m.fundingRates[pair]
	if !ok {
		return decimal.Decimal{}, false
	}
	return series.Get(NormalizeToMinute(at))
}
