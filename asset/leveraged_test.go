package asset

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/ridgeline-quant/gridback/currency"
)

func newTestLong(t *testing.T) LeveragedAsset {
	t.Helper()
	margin := Asset{Type: currency.Usdt, Balance: d(10_000)}
	l, err := NewLeveraged(currency.BtcUsdtFuture, d(1), margin, d(100_000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

// S2 — LeveragedAsset construction.
func TestLeveragedNew(t *testing.T) {
	l := newTestLong(t)

	if !l.Quote.Balance.Equal(d(-100_000)) {
		t.Errorf("quote = %s, want -100000", l.Quote.Balance)
	}
	if !l.Margin.Balance.Equal(d(10_000)) {
		t.Errorf("margin = %s, want 10000", l.Margin.Balance)
	}
	if l.Direction() != Long {
		t.Errorf("direction = %s, want LONG", l.Direction())
	}
	if !l.Leverage().Equal(d(10)) {
		t.Errorf("leverage = %s, want 10", l.Leverage())
	}
	if !l.LiquidationPrice().Equal(d(90_000)) {
		t.Errorf("liquidation price = %s, want 90000", l.LiquidationPrice())
	}
}

// S3 — mark invariance.
func TestLeveragedUpdateInvariance(t *testing.T) {
	l := newTestLong(t)
	liqBefore := l.LiquidationPrice()

	l.Update(d(180_000))

	if !l.Margin.Balance.Equal(d(90_000)) {
		t.Errorf("margin after update = %s, want 90000", l.Margin.Balance)
	}
	if !l.Quote.Balance.Equal(d(-180_000)) {
		t.Errorf("quote after update = %s, want -180000", l.Quote.Balance)
	}
	if !l.Leverage().Equal(d(2)) {
		t.Errorf("leverage after update = %s, want 2", l.Leverage())
	}
	if !l.LiquidationPrice().Equal(liqBefore) {
		t.Errorf("liquidation price drifted: %s -> %s", liqBefore, l.LiquidationPrice())
	}

	l.Update(d(10_000))
	if !l.LiquidationPrice().Equal(liqBefore) {
		t.Errorf("liquidation price drifted after second update: %s -> %s", liqBefore, l.LiquidationPrice())
	}
}

func TestLeveragedShortLiquidationPrice(t *testing.T) {
	margin := Asset{Type: currency.Usdt, Balance: d(10_000)}
	l, err := NewLeveraged(currency.BtcUsdtFuture, d(-1), margin, d(100_000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Direction() != Short {
		t.Fatalf("direction = %s, want SHORT", l.Direction())
	}
	if !l.LiquidationPrice().Equal(d(110_000)) {
		t.Errorf("liquidation price = %s, want 110000", l.LiquidationPrice())
	}
}

func TestLeveragedMarginTopUpAndWithdraw(t *testing.T) {
	l := newTestLong(t)

	if err := l.MarginTopUp(Asset{Type: currency.Usdt, Balance: d(10_000)}); err != nil {
		t.Fatalf("top up: %v", err)
	}
	if !l.Margin.Balance.Equal(d(20_000)) {
		t.Errorf("margin = %s, want 20000", l.Margin.Balance)
	}
	if !l.Leverage().Equal(d(5)) {
		t.Errorf("leverage = %s, want 5", l.Leverage())
	}

	withdrawn, err := l.MarginWithdraw(d(15_000))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !withdrawn.Balance.Equal(d(15_000)) {
		t.Errorf("withdrawn = %s, want 15000", withdrawn.Balance)
	}
	if !l.Margin.Balance.Equal(d(5_000)) {
		t.Errorf("margin after withdraw = %s, want 5000", l.Margin.Balance)
	}

	_, err = l.MarginWithdraw(d(20_000))
	if err == nil {
		t.Fatal("expected MarginNotEnoughError")
	}
	if _, ok := err.(*MarginNotEnoughError); !ok {
		t.Fatalf("got %T, want *MarginNotEnoughError", err)
	}
}

func TestLeveragedSplit(t *testing.T) {
	l := newTestLong(t)
	half := l.Split(decimal.NewFromFloat(0.1))

	if !l.Base.Balance.Equal(decimal.NewFromFloat(0.9)) {
		t.Errorf("remaining base = %s, want 0.9", l.Base.Balance)
	}
	if !l.Margin.Balance.Equal(d(9_000)) {
		t.Errorf("remaining margin = %s, want 9000", l.Margin.Balance)
	}
	if !half.Base.Balance.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("split base = %s, want 0.1", half.Base.Balance)
	}
	if !half.Margin.Balance.Equal(d(1_000)) {
		t.Errorf("split margin = %s, want 1000", half.Margin.Balance)
	}
	if !half.Leverage().Equal(l.Leverage()) {
		t.Errorf("leverage not preserved by split: %s vs %s", half.Leverage(), l.Leverage())
	}
}

func TestLeveragedMergeTypeMismatch(t *testing.T) {
	l := newTestLong(t)
	other, err := NewLeveraged(currency.BtcUsdCmFuture, d(10), Asset{Type: currency.Btc, Balance: d(1)}, d(10))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = l.Merge(other)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*PairTypeMismatchError); !ok {
		t.Fatalf("got %T, want *PairTypeMismatchError", err)
	}
}

func TestLeveragedMergeMarginTypeMismatch(t *testing.T) {
	l := newTestLong(t)
	other := l
	other.Margin = Asset{Type: currency.Btc, Balance: d(1)}

	err := l.Merge(other)
	if err == nil {
		t.Fatal("expected error")
	}
	mismatch, ok := err.(*MarginTypeMismatchError)
	if !ok {
		t.Fatalf("got %T, want *MarginTypeMismatchError", err)
	}
	if mismatch.Returned.PairType != other.PairType {
		t.Errorf("Returned.PairType = %s, want %s", mismatch.Returned.PairType, other.PairType)
	}
	if !mismatch.Returned.Base.Balance.Equal(other.Base.Balance) {
		t.Errorf("Returned.Base = %s, want %s", mismatch.Returned.Base.Balance, other.Base.Balance)
	}
	if !mismatch.Returned.Quote.Balance.Equal(other.Quote.Balance) {
		t.Errorf("Returned.Quote = %s, want %s", mismatch.Returned.Quote.Balance, other.Quote.Balance)
	}
	if mismatch.Returned.Margin.Type != other.Margin.Type || !mismatch.Returned.Margin.Balance.Equal(other.Margin.Balance) {
		t.Errorf("Returned.Margin = %+v, want %+v", mismatch.Returned.Margin, other.Margin)
	}
}
