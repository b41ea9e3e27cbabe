package strategyorder

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/order"
)

func dp(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(dp(0.01), dp(0.05), dp(0.001))
}

func openLongAt(t *testing.T, m *Manager, price float64) StrategyOrder {
	t.Helper()
	o, err := order.New(currency.BtcUsdt, dp(price), dp(0.1), order.Buy)
	if err != nil {
		t.Fatalf("order.New: %v", err)
	}
	so, err := m.AddWithOrder(o, asset.Long)
	if err != nil {
		t.Fatalf("AddWithOrder: %v", err)
	}
	if _, err := m.OpenedByOrderID(o.ID); err != nil {
		t.Fatalf("OpenedByOrderID: %v", err)
	}
	so, err = m.PeekByID(so.ID)
	if err != nil {
		t.Fatalf("PeekByID: %v", err)
	}
	return so
}

// S6 — collision stepping: three long opens at 300 land at 303.0,
// 303.3, 303.6 (step = 300*0.001 = 0.3).
func TestCollisionStepping(t *testing.T) {
	m := newManager(t)

	first := openLongAt(t, m, 300)
	second := openLongAt(t, m, 300)
	third := openLongAt(t, m, 300)

	if !first.ExpectedClosePrice.Equal(dp(303.0)) {
		t.Errorf("first expected close = %s, want 303.0", first.ExpectedClosePrice)
	}
	if !second.ExpectedClosePrice.Equal(dp(303.3)) {
		t.Errorf("second expected close = %s, want 303.3", second.ExpectedClosePrice)
	}
	if !third.ExpectedClosePrice.Equal(dp(303.6)) {
		t.Errorf("third expected close = %s, want 303.6", third.ExpectedClosePrice)
	}

	var seen []decimal.Decimal
	for {
		so, ok, err := m.PopLowestLongOpenedOrder()
		if err != nil {
			t.Fatalf("PopLowestLongOpenedOrder: %v", err)
		}
		if !ok {
			break
		}
		seen = append(seen, so.ExpectedClosePrice)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 opened entries, got %d", len(seen))
	}
}

func TestOpenedOrderingAcrossPrices(t *testing.T) {
	m := newManager(t)
	prices := []float64{400, 200, 100, 300, 300, 300, 500, 600}
	want := []float64{101, 202, 303.0, 303.3, 303.6, 404, 505, 606}

	for _, p := range prices {
		openLongAt(t, m, p)
	}

	for _, expected := range want {
		so, ok, err := m.PopLowestLongOpenedOrder()
		if err != nil {
			t.Fatalf("PopLowestLongOpenedOrder: %v", err)
		}
		if !ok {
			t.Fatalf("expected an entry for close price %v", expected)
		}
		if !so.ExpectedClosePrice.Equal(dp(expected)) {
			t.Errorf("popped close price = %s, want %v", so.ExpectedClosePrice, expected)
		}
	}

	if _, ok, _ := m.PopLowestLongOpenedOrder(); ok {
		t.Fatal("expected empty index after draining")
	}
}

func TestPeekHighestAndLowestLongOpenedOrder(t *testing.T) {
	m := newManager(t)
	for _, p := range []float64{100, 200, 300, 400, 500, 600} {
		openLongAt(t, m, p)
	}

	highest, ok, err := m.PeekHighestLongOpenedOrder()
	if err != nil || !ok {
		t.Fatalf("PeekHighestLongOpenedOrder: ok=%v err=%v", ok, err)
	}
	if !highest.OpenPrice.Equal(dp(600)) {
		t.Errorf("highest open price = %s, want 600", highest.OpenPrice)
	}
	if !highest.ExpectedClosePrice.Equal(dp(606)) {
		t.Errorf("highest expected close = %s, want 606", highest.ExpectedClosePrice)
	}

	lowest, ok, err := m.PeekLowestLongOpenedOrder()
	if err != nil || !ok {
		t.Fatalf("PeekLowestLongOpenedOrder: ok=%v err=%v", ok, err)
	}
	if !lowest.OpenPrice.Equal(dp(100)) {
		t.Errorf("lowest open price = %s, want 100", lowest.OpenPrice)
	}

	// short side is empty
	_, ok, err = m.PeekHighestShortOpenedOrder()
	if err != nil {
		t.Fatalf("PeekHighestShortOpenedOrder: %v", err)
	}
	if ok {
		t.Fatal("expected no short opened orders")
	}
}

func TestBindCloseAndCancelClose(t *testing.T) {
	m := newManager(t)
	so := openLongAt(t, m, 200)

	closeOrder, err := order.New(currency.BtcUsdt, dp(220), dp(0.1), order.Sell)
	if err != nil {
		t.Fatalf("order.New: %v", err)
	}

	if err := m.BindCloseByOrderID(so.OpenOrderID, closeOrder.ID); err != nil {
		t.Fatalf("BindCloseByOrderID: %v", err)
	}

	if _, ok, _ := m.PeekHighestLongOpenedOrder(); ok {
		t.Fatal("expected opened index to be empty after bind close")
	}

	bound, err := m.PeekByOrderID(closeOrder.ID)
	if err != nil {
		t.Fatalf("PeekByOrderID(close): %v", err)
	}
	if bound.State != Closing {
		t.Errorf("state = %s, want CLOSING", bound.State)
	}

	price, err := m.CancelCloseByOrderID(so.OpenOrderID)
	if err != nil {
		t.Fatalf("CancelCloseByOrderID: %v", err)
	}
	if !price.Equal(dp(202)) {
		t.Errorf("re-registered close price = %s, want 202", price)
	}

	restored, ok, err := m.PeekLowestLongOpenedOrder()
	if err != nil || !ok {
		t.Fatalf("PeekLowestLongOpenedOrder: ok=%v err=%v", ok, err)
	}
	if restored.State != Opened {
		t.Errorf("state = %s, want OPENED", restored.State)
	}
}

func TestCancelOpenDestroysStrategyOrder(t *testing.T) {
	m := newManager(t)
	o, err := order.New(currency.BtcUsdt, dp(300), dp(0.1), order.Buy)
	if err != nil {
		t.Fatalf("order.New: %v", err)
	}
	so, err := m.AddWithOrder(o, asset.Long)
	if err != nil {
		t.Fatalf("AddWithOrder: %v", err)
	}

	canceled, err := m.CancelOpenByOrderID(o.ID)
	if err != nil {
		t.Fatalf("CancelOpenByOrderID: %v", err)
	}
	if canceled.State != Canceled {
		t.Errorf("state = %s, want CANCELED", canceled.State)
	}
	if _, err := m.PeekByID(so.ID); err == nil {
		t.Fatal("expected strategy order to be destroyed")
	}
}
