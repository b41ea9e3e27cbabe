package pricemodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// Step is a synthetic square-wave price model used for strategy testing.
type Step struct {
	Period time.Duration
	Top    decimal.Decimal
	Bottom decimal.Decimal
	Origin time.Time
}

// GetPrice returns Top for the second half of each Period and Bottom
// for the first half, measuring elapsed time from Origin.
func (s Step) GetPrice(t time.Time) (decimal.Decimal, bool) {
	period := int64(s.Period.Seconds())
	elapsed := int64(t.Sub(s.Origin).Seconds())

	mod := ((elapsed % period) + period) % period
	if mod >= period/2 {
		return s.Top, true
	}
	return s.Bottom, true
}

// UpdateModel is a no-op: the model is stateless.
func (s Step) UpdateModel(time.Time, decimal.Decimal) {}
