package asset

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/ridgeline-quant/gridback/currency"
)

func TestUnionSplitSpot(t *testing.T) {
	u := FromAsset(Asset{Type: currency.Usdt, Balance: d(100)})

	split, err := u.Split(d(20))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if !u.Balance().Equal(d(80)) {
		t.Errorf("u.Balance() = %s, want 80", u.Balance())
	}
	if !split.Balance().Equal(d(20)) {
		t.Errorf("split.Balance() = %s, want 20", split.Balance())
	}
}

func TestUnionSplitSpotNotEnough(t *testing.T) {
	u := FromAsset(Asset{Type: currency.Usdt, Balance: d(10)})

	_, err := u.Split(d(20))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*NotEnoughError); !ok {
		t.Fatalf("got %T, want *NotEnoughError", err)
	}
	if !u.Balance().Equal(d(10)) {
		t.Errorf("u mutated on failed split: %s", u.Balance())
	}
}

func TestUnionSplitLeveraged(t *testing.T) {
	lev := newTestLong(t)
	u := FromLeveraged(lev)

	split, err := u.Split(decimal.NewFromFloat(0.1))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if split.IsSpot() {
		t.Fatal("split result should not be spot")
	}
	if !split.Leveraged().Base.Balance.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("split base = %s, want 0.1", split.Leveraged().Base.Balance)
	}
	if !u.Leveraged().Base.Balance.Equal(decimal.NewFromFloat(0.9)) {
		t.Errorf("remaining base = %s, want 0.9", u.Leveraged().Base.Balance)
	}
}

func TestUnionSplitLeveragedNotEnough(t *testing.T) {
	lev := newTestLong(t)
	u := FromLeveraged(lev)

	_, err := u.Split(d(2))
	if err == nil {
		t.Fatal("expected error")
	}
	ne, ok := err.(*NotEnoughError)
	if !ok {
		t.Fatalf("got %T, want *NotEnoughError", err)
	}
	if !ne.Remain.Equal(d(1)) || !ne.Required.Equal(d(2)) {
		t.Errorf("got remain=%s required=%s", ne.Remain, ne.Required)
	}
	if !u.Leveraged().Base.Balance.Equal(d(1)) {
		t.Errorf("u mutated on failed split: %s", u.Leveraged().Base.Balance)
	}
}
