package pricemodel

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Sin is a synthetic sinusoidal price model used for strategy testing.
type Sin struct {
	Period    time.Duration
	Amplitude decimal.Decimal
	Origin    time.Time
	Mean      decimal.Decimal
}

// GetPrice returns Mean + Amplitude*sin(2*pi*elapsed/Period).
func (s Sin) GetPrice(t time.Time) (decimal.Decimal, bool) {
	seconds := t.Sub(s.Origin).Seconds()
	periodSeconds := s.Period.Seconds()

	angle := 2.0 * math.Pi * seconds / periodSeconds
	sine := decimal.NewFromFloat(math.Sin(angle))

	return s.Amplitude.Mul(sine).Add(s.Mean), true
}

// UpdateModel is a no-op: the model is stateless.
func (s Sin) UpdateModel(time.Time, decimal.Decimal) {}
