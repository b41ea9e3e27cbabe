// Package pricemodel implements the interchangeable price predictors a
// strategy's position model derives target exposure from: a synthetic
// sinusoid and step signal for testing, and a long-term multiplicative
// trend model for production use.
//
// Grounded on original_source/src/strategy/model/mod.rs (TPriceModel),
// model_sin_test.rs, price_model_step_test.rs and
// price_model_long_term_trend.rs.
package pricemodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// Model predicts a price at a given time and may be fed realized
// prices to refine future predictions.
type Model interface {
	// GetPrice returns the model's predicted price at t, or ok=false
	// if the model cannot produce a value there.
	GetPrice(t time.Time) (price decimal.Decimal, ok bool)
	// UpdateModel feeds a realized (time, price) observation back into
	// the model. Every model in this package is stateless and treats
	// this as a no-op, matching the source's own implementations.
	UpdateModel(t time.Time, price decimal.Decimal)
}
