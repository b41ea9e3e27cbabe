package pricemodel

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// LongTermTrend predicts price as M(x)*(1 + A(x)*S(x)): a power-law
// mean-growth curve M modulated by a decaying-amplitude sinusoid A*S,
// where x is elapsed time from Origin in days.
type LongTermTrend struct {
	Origin time.Time

	A  float64 // amplitude decay rate
	C  float64 // mean curve y-intercept
	L  float64 // mean growth rate
	K  float64 // mean growth decay exponent, 0<k<1
	X0 float64 // mean curve origin offset
	X1 float64 // amplitude curve origin offset
	X2 float64 // cycle initial phase
	T  float64 // cycle period (days)
}

// DefaultLongTermTrend returns the model fitted to BTC/USD's long-run
// history, anchored at 2017-08-31.
func DefaultLongTermTrend() LongTermTrend {
	return LongTermTrend{
		Origin: time.Date(2017, 8, 31, 0, 0, 0, 0, time.UTC),
		A:      0.00124602,
		C:      295.231439,
		L:      40.4493398,
		K:      0.91441314,
		X0:     71.5570562,
		X1:     0.0000036314,
		X2:     1.97740554,
		T:      210000.0 * 10.0 / 60.0 / 24.0 / math.Pi / 2.0,
	}
}

func (m LongTermTrend) meanCurve(x float64) float64 {
	return m.L*math.Pow(x+m.X0, m.K) + m.C
}

func (m LongTermTrend) amplitudeCurve(x float64) float64 {
	tmp := 1.0 + m.A*(x+m.X1)
	if tmp < 1.0 {
		tmp = 1.0
	}
	return 1.0 / (1.0 + math.Log(tmp))
}

func (m LongTermTrend) cycle(x float64) float64 {
	return math.Sin(x/m.T + m.X2)
}

func (m LongTermTrend) price(x float64) float64 {
	return m.meanCurve(x) * (1.0 + m.amplitudeCurve(x)*m.cycle(x))
}

// GetPrice returns the model's prediction for t, converting the
// float64 computation to Decimal at the boundary. Returns ok=false if
// the result is not finite.
func (m LongTermTrend) GetPrice(t time.Time) (decimal.Decimal, bool) {
	days := t.Sub(m.Origin).Minutes() / 1440.0
	priceF64 := m.price(days)
	if math.IsNaN(priceF64) || math.IsInf(priceF64, 0) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(priceF64), true
}

// UpdateModel is a no-op: the model is stateless.
func (m LongTermTrend) UpdateModel(time.Time, decimal.Decimal) {}
