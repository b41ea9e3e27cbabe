package strategy

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/config"
	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/order"
	"github.com/ridgeline-quant/gridback/strategy/pid"
	"github.com/ridgeline-quant/gridback/strategy/position"
	"github.com/ridgeline-quant/gridback/strategyorder"
)

var _ Strategy = (*Grid)(nil)

// Grid is a single-pair example strategy: it tracks a target position
// ratio from an embedded position model, clamps it through a PID
// controller, and on each tick cancels every order it placed in the
// prior tick and re-quotes fresh open/close legs around the current
// close price. Close legs are priced at whatever expected close price
// the StrategyOrder collision-stepping algorithm already assigned them.
//
// Grounded on original_source/src/strategy/mk3.rs (SStrategyMk3): the
// cancel-then-requote tick shape, the PID-adjusted dynamic target
// position, and the cutoff-price clamp on resting orders. Simplified
// relative to mk3.rs — no dead-zone/live-zone bands, a single fixed
// open quantity rather than a percentage-of-price schedule — since
// Grid is a usable example of the Strategy contract, not a ported
// reproduction of the reference strategy (see DESIGN.md).
type Grid struct {
	Pair     currency.PairType
	Position position.Model
	PID      *pid.Controller

	StrategyOrders *strategyorder.Manager

	CutOffPricePercentage decimal.Decimal
	OpenQuantity          decimal.Decimal // base-currency quantity per open order

	resting map[uuid.UUID]struct{}
	target  decimal.Decimal
}

// NewGrid returns a Grid strategy quoting pair, deriving its static
// target position ratio from positionModel, damping it toward the
// book's actual ratio via pidController (nil disables damping,
// feeding the static ratio straight through), and pairing orders via
// the given StrategyOrder manager (already configured with min/max
// profit and close-price-step percentages).
func NewGrid(pair currency.PairType, positionModel position.Model, pidController *pid.Controller, strategyOrders *strategyorder.Manager, cutOffPricePercentage, openQuantity decimal.Decimal) *Grid {
	return &Grid{
		Pair:                  pair,
		Position:              positionModel,
		PID:                   pidController,
		StrategyOrders:        strategyOrders,
		CutOffPricePercentage: cutOffPricePercentage,
		OpenQuantity:          openQuantity,
		resting:               make(map[uuid.UUID]struct{}),
	}
}

// positionRatio returns base_value / (base_value + quote_value) for
// the pair's current holdings (available plus locked in the book).
func (g *Grid) positionRatio(totalAssets *asset.Map, price decimal.Decimal) decimal.Decimal {
	baseUnion, err := totalAssets.Get(g.Pair.BaseCurrency())
	var baseBalance decimal.Decimal
	if err == nil {
		baseBalance = baseUnion.Balance()
	}
	quoteUnion, err := totalAssets.Get(g.Pair.QuoteCurrency())
	var quoteBalance decimal.Decimal
	if err == nil {
		quoteBalance = quoteUnion.Balance()
	}

	baseValue := baseBalance.Mul(price)
	denominator := baseValue.Add(quoteBalance)
	if denominator.IsZero() {
		return decimal.Zero
	}
	return baseValue.Div(denominator)
}

// Run implements Strategy. It first advances the StrategyOrder state
// machine for every fill reported this tick, then cancels every order
// still resting from a prior tick, then re-quotes.
func (g *Grid) Run(tpOrderMap *order.PairMap, availableAssets *asset.Map, parseResult ParseKlineResult, debug config.DebugConfig) []Action {
	var actions []Action

	for _, result := range parseResult.OrderResults {
		delete(g.resting, result.Order.ID)
		so, err := g.StrategyOrders.PeekByOrderID(result.Order.ID)
		if err != nil {
			continue
		}
		switch so.State {
		case strategyorder.Opening:
			if _, err := g.StrategyOrders.OpenedByOrderID(result.Order.ID); err != nil && debug.IsDebug {
				log.Debug().Err(err).Msg("grid: opened_by_order_id failed")
			}
		case strategyorder.Closing:
			if _, err := g.StrategyOrders.ClosedByOrderID(result.Order.ID); err != nil && debug.IsDebug {
				log.Debug().Err(err).Msg("grid: closed_by_order_id failed")
			}
		}
	}

	for id := range g.resting {
		actions = append(actions, CancelOrderAction(id))
	}

	price := parseResult.NewKline.Close
	if price.IsZero() {
		return actions
	}

	book := tpOrderMap.GetOrCreate(g.Pair)
	totalAssets := availableAssets.Add(book.CalculateTotalAssets())
	actualRatio := g.positionRatio(totalAssets, price)

	g.target = actualRatio
	if staticTarget, ok := g.Position.GetPosition(parseResult.NewKline.CloseTime); ok {
		g.target = staticTarget
		if g.PID != nil {
			g.target = g.PID.Update(staticTarget, actualRatio)
		}
	}

	one := decimal.NewFromInt(1)
	cutoffLow := price.Mul(one.Sub(g.CutOffPricePercentage))
	cutoffHigh := price.Mul(one.Add(g.CutOffPricePercentage))

	if actualRatio.LessThan(g.target) {
		buyPrice := decimal.Min(price, cutoffHigh)
		buyPrice = decimal.Max(buyPrice, cutoffLow)
		actions = append(actions, NewOrderAction(NewOrder{
			Pair:         g.Pair,
			Action:       order.Buy,
			Price:        buyPrice,
			BaseQuantity: g.OpenQuantity,
		}))
	} else if actualRatio.GreaterThan(g.target) {
		sellPrice := decimal.Max(price, cutoffLow)
		sellPrice = decimal.Min(sellPrice, cutoffHigh)
		actions = append(actions, NewOrderAction(NewOrder{
			Pair:         g.Pair,
			Action:       order.Sell,
			Price:        sellPrice,
			BaseQuantity: g.OpenQuantity,
		}))
	}

	g.StrategyOrders.Each(func(so strategyorder.StrategyOrder) {
		if so.State != strategyorder.Opened || !so.HasExpectedClosePrice() {
			return
		}
		id := so.ID
		closeAction := order.Sell
		if so.Direction == asset.Short {
			closeAction = order.Buy
		}
		actions = append(actions, NewOrderAction(NewOrder{
			StrategyOrderID: &id,
			Pair:            g.Pair,
			Action:          closeAction,
			Price:           so.ExpectedClosePrice,
			BaseQuantity:    so.Quantity,
		}))
	})

	return actions
}

// Verify implements Strategy: it records newly placed orders as
// resting (so the next tick's Run cancels them), binds close legs or
// registers fresh open legs in the StrategyOrder manager, and rolls
// back the StrategyOrder of every canceled leg (a canceled open leg
// destroys it, a canceled close leg returns it to Opened).
func (g *Grid) Verify(pair currency.PairType, syncResults []SyncActionResult, debug config.DebugConfig) {
	for _, result := range syncResults {
		if !result.IsPlaced() {
			orderID := result.Order().ID
			so, err := g.StrategyOrders.PeekByOrderID(orderID)
			if err != nil {
				continue
			}
			switch so.State {
			case strategyorder.Opening:
				_, err = g.StrategyOrders.CancelOpenByOrderID(orderID)
			case strategyorder.Closing:
				_, err = g.StrategyOrders.CancelCloseByOrderID(orderID)
			}
			if err != nil && debug.IsDebug {
				log.Debug().Err(err).Msg("grid: rolling back canceled leg failed")
			}
			continue
		}
		o := result.Order()
		g.resting[o.ID] = struct{}{}

		if strategyOrderID := result.StrategyOrderID(); strategyOrderID != nil {
			so, err := g.StrategyOrders.PeekByID(*strategyOrderID)
			if err != nil {
				if debug.IsDebug {
					log.Debug().Err(err).Msg("grid: strategy order not found for close leg")
				}
				continue
			}
			if err := g.StrategyOrders.BindCloseByOrderID(so.OpenOrderID, o.ID); err != nil && debug.IsDebug {
				log.Debug().Err(err).Msg("grid: bind_close_by_order_id failed")
			}
			continue
		}

		direction := asset.Long
		if o.Action == order.Sell {
			direction = asset.Short
		}
		if _, err := g.StrategyOrders.AddWithOrder(o, direction); err != nil && debug.IsDebug {
			log.Debug().Err(err).Msg("grid: add_with_order failed")
		}
	}
}

// GetLogInfo implements Strategy.
func (g *Grid) GetLogInfo() LogInfo {
	return LogInfo{TargetPositionRatio: g.target}
}

// GetPosition implements Strategy, forwarding to the embedded position model.
func (g *Grid) GetPosition(t time.Time) (decimal.Decimal, bool) {
	return g.Position.GetPosition(t)
}
