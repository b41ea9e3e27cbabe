package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/config"
	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/data"
	"github.com/ridgeline-quant/gridback/order"
	"github.com/ridgeline-quant/gridback/strategy/pid"
	"github.com/ridgeline-quant/gridback/strategy/position"
	"github.com/ridgeline-quant/gridback/strategyorder"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// constantPosition is a flat price model (always 100). newTestGrid
// wraps it in a position model whose Max and Min are both the given
// target, so a test can fix the target ratio (and force the buy or
// sell branch) without depending on atan2 arithmetic.
type constantPosition struct {
	value decimal.Decimal
}

func (c constantPosition) GetPrice(time.Time) (decimal.Decimal, bool) { return dec(100), true }
func (c constantPosition) UpdateModel(time.Time, decimal.Decimal)     {}

func newTestGrid(t *testing.T, target decimal.Decimal) (*Grid, *strategyorder.Manager) {
	t.Helper()
	so := strategyorder.NewManager(dec(0.01), dec(0.05), dec(0.001))
	pos := position.New(constantPosition{}, target, target)
	g := NewGrid(currency.BtcUsdt, pos, nil, so, dec(0.02), dec(0.01))
	return g, so
}

func klineResult(price float64, orderResults ...OrderResult) ParseKlineResult {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return ParseKlineResult{
		Pair: currency.BtcUsdt,
		NewKline: data.Candle{
			OpenTime:  now,
			CloseTime: now,
			Open:      dec(price),
			High:      dec(price),
			Low:       dec(price),
			Close:     dec(price),
		},
		OrderResults: orderResults,
	}
}

func TestGridRunPlacesBuyWhenUnderTarget(t *testing.T) {
	g, _ := newTestGrid(t, dec(1.0))

	tpOrderMap := order.NewPairMap()
	available := asset.NewMap()
	available.MergeAsset(asset.FromAsset(asset.Asset{Type: currency.Usdt, Balance: dec(1000)}))

	actions := g.Run(tpOrderMap, available, klineResult(100), config.DebugConfig{})

	foundBuy := false
	for _, a := range actions {
		if a.IsNewOrder() && a.NewOrder().Action == order.Buy {
			foundBuy = true
		}
	}
	if !foundBuy {
		t.Errorf("expected a buy action when actual ratio (0) is below target (1), got %+v", actions)
	}
}

func TestGridRunPlacesSellWhenOverTarget(t *testing.T) {
	g, _ := newTestGrid(t, dec(-1.0))

	tpOrderMap := order.NewPairMap()
	available := asset.NewMap()
	available.MergeAsset(asset.FromAsset(asset.Asset{Type: currency.Btc, Balance: dec(10)}))

	actions := g.Run(tpOrderMap, available, klineResult(100), config.DebugConfig{})

	foundSell := false
	for _, a := range actions {
		if a.IsNewOrder() && a.NewOrder().Action == order.Sell {
			foundSell = true
		}
	}
	if !foundSell {
		t.Errorf("expected a sell action when actual ratio (1) is above target (-1), got %+v", actions)
	}
}

func TestGridEmitsCloseActionForOpenedStrategyOrder(t *testing.T) {
	g, so := newTestGrid(t, dec(0))

	openOrder, err := order.New(currency.BtcUsdt, dec(100), dec(1), order.Buy)
	if err != nil {
		t.Fatalf("order.New: %v", err)
	}
	strategyOrder, err := so.AddWithOrder(openOrder, asset.Long)
	if err != nil {
		t.Fatalf("AddWithOrder: %v", err)
	}
	if _, err := so.OpenedByOrderID(openOrder.ID); err != nil {
		t.Fatalf("OpenedByOrderID: %v", err)
	}

	tpOrderMap := order.NewPairMap()
	available := asset.NewMap()

	actions := g.Run(tpOrderMap, available, klineResult(100), config.DebugConfig{})

	foundClose := false
	for _, a := range actions {
		if !a.IsNewOrder() {
			continue
		}
		n := a.NewOrder()
		if n.StrategyOrderID != nil && *n.StrategyOrderID == strategyOrder.ID {
			foundClose = true
			if n.Action != order.Sell {
				t.Errorf("expected close leg of a long position to be a sell, got %s", n.Action)
			}
		}
	}
	if !foundClose {
		t.Error("expected a close-leg action for the opened long strategy order")
	}
}

func TestGridRunCancelsPriorTickRestingOrders(t *testing.T) {
	g, _ := newTestGrid(t, dec(1.0))

	restingID, err := order.New(currency.BtcUsdt, dec(99), dec(1), order.Buy)
	if err != nil {
		t.Fatalf("order.New: %v", err)
	}
	g.Verify(currency.BtcUsdt, []SyncActionResult{OrderPlacedResult(restingID, nil)}, config.DebugConfig{})

	tpOrderMap := order.NewPairMap()
	available := asset.NewMap()

	actions := g.Run(tpOrderMap, available, klineResult(100), config.DebugConfig{})

	foundCancel := false
	for _, a := range actions {
		if !a.IsNewOrder() && a.CancelOrder().OrderID == restingID.ID {
			foundCancel = true
		}
	}
	if !foundCancel {
		t.Error("expected the prior tick's resting order to be canceled")
	}
}

func TestGridRunDampsTargetThroughPID(t *testing.T) {
	so := strategyorder.NewManager(dec(0.01), dec(0.05), dec(0.001))
	pos := position.New(constantPosition{}, dec(1.0), dec(1.0))
	controller := pid.New(pid.Config{Proportional: dec(0.5)})
	g := NewGrid(currency.BtcUsdt, pos, controller, so, dec(0.02), dec(0.01))

	tpOrderMap := order.NewPairMap()
	available := asset.NewMap()

	g.Run(tpOrderMap, available, klineResult(100), config.DebugConfig{})

	// static target is 1.0, actual ratio is 0 (no assets held), so the
	// proportional-only controller should land exactly halfway: 0.5.
	want := dec(0.5)
	if !g.GetLogInfo().TargetPositionRatio.Equal(want) {
		t.Errorf("damped target = %s, want %s", g.GetLogInfo().TargetPositionRatio, want)
	}
}
