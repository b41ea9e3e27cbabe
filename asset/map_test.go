package asset

import (
	"testing"

	"github.com/ridgeline-quant/gridback/currency"
)

func TestMapSplit(t *testing.T) {
	m := NewMap()
	m.MergeAsset(FromAsset(Asset{Type: currency.Usdt, Balance: d(100)}))

	split, err := m.Split(currency.Usdt, d(20))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if !split.Balance().Equal(d(20)) {
		t.Errorf("split.Balance() = %s, want 20", split.Balance())
	}
	remaining, err := m.Get(currency.Usdt)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !remaining.Balance().Equal(d(80)) {
		t.Errorf("remaining.Balance() = %s, want 80", remaining.Balance())
	}
}

func TestMapSplitNotFound(t *testing.T) {
	m := NewMap()
	_, err := m.Split(currency.Usdt, d(20))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("got %T, want *NotFoundError", err)
	}
}

func TestMapSplitNotEnough(t *testing.T) {
	m := NewMap()
	m.MergeAsset(FromAsset(Asset{Type: currency.Usdt, Balance: d(10)}))

	_, err := m.Split(currency.Usdt, d(20))
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*NotEnoughError); !ok {
		t.Fatalf("got %T, want *NotEnoughError", err)
	}
	remaining, err := m.Get(currency.Usdt)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !remaining.Balance().Equal(d(10)) {
		t.Errorf("m mutated on failed split: %s", remaining.Balance())
	}
}
