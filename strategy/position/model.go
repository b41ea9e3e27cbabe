// Package position derives a target position ratio from a price
// model's local curvature: the angle between its standardized first
// and second time derivatives selects one of four regimes (fully
// long, scaling down, fully flat, scaling up).
//
// Grounded on original_source/src/strategy/model/position_model.rs
// (SPositionModel).
package position

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/strategy/pricemodel"
)

// Model wraps a price model to derive a target position ratio in
// [min, max] from the local shape of its predicted price curve.
type Model struct {
	PriceModel pricemodel.Model
	DeltaTime  time.Duration
	Max        decimal.Decimal
	Min        decimal.Decimal

	// Normalization constants fitted against the long-term BTC/USD
	// trend model; carried over unchanged since the position-selection
	// angle is only meaningful relative to this specific model's
	// derivative distribution.
	FirstDerivativeMean  decimal.Decimal
	FirstDerivativeStd   decimal.Decimal
	SecondDerivativeMean decimal.Decimal
	SecondDerivativeStd  decimal.Decimal
}

// New returns a Model with the ±12-hour finite-difference offset and
// normalization constants fitted against the long-term trend model.
func New(priceModel pricemodel.Model, positionMax, positionMin decimal.Decimal) Model {
	return Model{
		PriceModel:           priceModel,
		DeltaTime:            12 * time.Hour,
		Max:                  positionMax,
		Min:                  positionMin,
		FirstDerivativeMean:  decimal.NewFromFloat(30.108271100239573),
		FirstDerivativeStd:   decimal.NewFromFloat(31.619871679773368),
		SecondDerivativeMean: decimal.NewFromFloat(-0.03086514940302392),
		SecondDerivativeStd:  decimal.NewFromFloat(0.17549696907579349),
	}
}

// GetPrice forwards to the wrapped price model.
func (m Model) GetPrice(t time.Time) (decimal.Decimal, bool) {
	return m.PriceModel.GetPrice(t)
}

// FirstDerivative is the centered finite-difference slope of the
// price curve at t, expressed as a per-day rate (scaled by 24*60 /
// minutes-per-offset).
func (m Model) FirstDerivative(t time.Time) (decimal.Decimal, bool) {
	plus, ok := m.PriceModel.GetPrice(t.Add(m.DeltaTime))
	if !ok {
		return decimal.Decimal{}, false
	}
	minus, ok := m.PriceModel.GetPrice(t.Add(-m.DeltaTime))
	if !ok {
		return decimal.Decimal{}, false
	}
	minutesPerOffset := decimal.NewFromFloat(2.0 * m.DeltaTime.Minutes())
	return plus.Sub(minus).Div(minutesPerOffset).Mul(decimal.NewFromInt(24 * 60)), true
}

// FirstDerivativeStandard is the z-score normalized first derivative.
func (m Model) FirstDerivativeStandard(t time.Time) (decimal.Decimal, bool) {
	d, ok := m.FirstDerivative(t)
	if !ok {
		return decimal.Decimal{}, false
	}
	return d.Sub(m.FirstDerivativeMean).Div(m.FirstDerivativeStd), true
}

// SecondDerivative is the centered finite difference of
// FirstDerivative, at the same ±DeltaTime offset.
func (m Model) SecondDerivative(t time.Time) (decimal.Decimal, bool) {
	plus, ok := m.FirstDerivative(t.Add(m.DeltaTime))
	if !ok {
		return decimal.Decimal{}, false
	}
	minus, ok := m.FirstDerivative(t.Add(-m.DeltaTime))
	if !ok {
		return decimal.Decimal{}, false
	}
	minutesPerOffset := decimal.NewFromFloat(2.0 * m.DeltaTime.Minutes())
	return plus.Sub(minus).Div(minutesPerOffset).Mul(decimal.NewFromInt(24 * 60)), true
}

// SecondDerivativeStandard is the z-score normalized second derivative.
func (m Model) SecondDerivativeStandard(t time.Time) (decimal.Decimal, bool) {
	d, ok := m.SecondDerivative(t)
	if !ok {
		return decimal.Decimal{}, false
	}
	return d.Sub(m.SecondDerivativeMean).Div(m.SecondDerivativeStd), true
}

// GetPosition maps the (second, first) standardized derivative pair
// to a target position ratio via the angle atan2(second, first),
// split into four quadrants:
//   - [0, 90]°   -> Max (accelerating uptrend)
//   - (90, 180]° -> linearly scaled down from Max to Min
//   - (180, 270]°-> Min (accelerating downtrend)
//   - (270, 360)°-> linearly scaled up from Min to Max
//
// float64/atan2 is used only at this boundary, converting back to
// Decimal immediately after, per the design notes.
func (m Model) GetPosition(t time.Time) (decimal.Decimal, bool) {
	first, ok := m.FirstDerivativeStandard(t)
	if !ok {
		return decimal.Decimal{}, false
	}
	second, ok := m.SecondDerivativeStandard(t)
	if !ok {
		return decimal.Decimal{}, false
	}

	firstF, _ := first.Float64()
	secondF, _ := second.Float64()

	angleRad := math.Atan2(secondF, firstF)
	angleDeg := math.Mod(angleRad*180/math.Pi+360.0, 360.0)

	delta := m.Max.Sub(m.Min)
	switch {
	case angleDeg >= 0.0 && angleDeg <= 90.0:
		return m.Max, true
	case angleDeg > 90.0 && angleDeg <= 180.0:
		frac := decimal.NewFromFloat((angleDeg - 90.0) / 90.0)
		return m.Max.Sub(delta.Mul(frac)), true
	case angleDeg > 180.0 && angleDeg <= 270.0:
		return m.Min, true
	default:
		frac := decimal.NewFromFloat((angleDeg - 270.0) / 90.0)
		return m.Min.Add(delta.Mul(frac)), true
	}
}
