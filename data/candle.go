// Package data holds the time-keyed market data series the driver
// consumes: one-minute candles and (for leveraged pairs) funding
// rates, both backed by the same ordered-by-timestamp structure.
package data

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is a single OHLCV bar.
//
// Grounded on SKlineUnitData (original_source/src/data/kline.rs).
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Contains reports whether price falls within [Low, High] inclusive.
func (c Candle) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(c.Low) && price.LessThanOrEqual(c.High)
}
