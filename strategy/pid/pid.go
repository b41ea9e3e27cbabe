// Package pid implements the proportional/integral feedback controller
// used to soften a strategy's static target position ratio toward the
// book's actual position, damping overshoot from a sharp swing in the
// underlying price model.
//
// Grounded on original_source/src/strategy/model/feedback_control.rs
// (SStrategyPidConfig, SPidIntegral) and the controller formula in
// mk3.rs/mk4.rs's get_dynamic_position_with_static_position.
package pid

import (
	"github.com/shopspring/decimal"
)

// Integral is the PID's accumulating term: a running sum of
// (target - actual) clamped to ±MaxCumulative, scaled by Parameter
// when folded into the controller's output.
type Integral struct {
	Parameter     decimal.Decimal
	MaxCumulative decimal.Decimal
	cumulative    decimal.Decimal
}

// NewIntegral returns an Integral term with a zeroed accumulator.
// maxCumulative must be positive.
func NewIntegral(parameter, maxCumulative decimal.Decimal) *Integral {
	return &Integral{Parameter: parameter, MaxCumulative: maxCumulative}
}

// AddUp accumulates diff, clamping the running sum to ±MaxCumulative.
func (i *Integral) AddUp(diff decimal.Decimal) {
	sum := i.cumulative.Add(diff)
	switch {
	case sum.GreaterThan(i.MaxCumulative):
		i.cumulative = i.MaxCumulative
	case sum.LessThan(i.MaxCumulative.Neg()):
		i.cumulative = i.MaxCumulative.Neg()
	default:
		i.cumulative = sum
	}
}

// Cumulative returns the current accumulator value.
func (i *Integral) Cumulative() decimal.Decimal { return i.cumulative }

// Config holds a Controller's tunable parameters. Integral and
// Derivative are optional; a nil Integral means no integral term
// contributes to the output (derivative is carried for parity with
// the source's config shape but, matching the source, never folds
// into the output formula).
type Config struct {
	Proportional decimal.Decimal
	Integral     *Integral
	Derivative   *decimal.Decimal
}

// Controller softens a static target position ratio toward the book's
// actual position ratio.
type Controller struct {
	cfg Config
}

// New returns a Controller for cfg.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Update accumulates the integral term from (target - actual) and
// returns the damped target: actual + P*(target-actual) + I.
func (c *Controller) Update(targetRatio, actualRatio decimal.Decimal) decimal.Decimal {
	diff := targetRatio.Sub(actualRatio)

	var integralTerm decimal.Decimal
	if c.cfg.Integral != nil {
		c.cfg.Integral.AddUp(diff)
		integralTerm = c.cfg.Integral.Cumulative().Mul(c.cfg.Integral.Parameter)
	}

	return actualRatio.Add(c.cfg.Proportional.Mul(diff)).Add(integralTerm)
}
