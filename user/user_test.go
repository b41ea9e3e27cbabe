package user

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/config"
	"github.com/ridgeline-quant/gridback/currency"
	"github.com/ridgeline-quant/gridback/order"
	"github.com/ridgeline-quant/gridback/strategy"
)

// noopStrategy is the smallest possible Strategy implementation, used
// only to exercise User's wiring without depending on strategy.Grid.
type noopStrategy struct{}

func (noopStrategy) Run(*order.PairMap, *asset.Map, strategy.ParseKlineResult, config.DebugConfig) []strategy.Action {
	return nil
}
func (noopStrategy) Verify(currency.PairType, []strategy.SyncActionResult, config.DebugConfig) {}
func (noopStrategy) GetLogInfo() strategy.LogInfo                                              { return strategy.LogInfo{} }
func (noopStrategy) GetPosition(time.Time) (decimal.Decimal, bool)                              { return decimal.Decimal{}, false }

func TestNewUserHasEmptyAggregates(t *testing.T) {
	u, err := New("Satoshi Nakamoto", noopStrategy{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if u.Name != "Satoshi Nakamoto" {
		t.Errorf("name = %q, want %q", u.Name, "Satoshi Nakamoto")
	}
	if u.ID.IsNil() {
		t.Error("expected a non-nil generated id")
	}
	if _, err := u.AvailableAssets.Get(currency.Usdt); err == nil {
		t.Error("expected a fresh user to have no USDT balance yet")
	}
}

func TestUserTotalAssetsSumsAvailableAndLocked(t *testing.T) {
	u, err := New("trader", noopStrategy{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	u.AvailableAssets.MergeAsset(asset.FromAsset(asset.Asset{Type: currency.Usdt, Balance: decimal.NewFromInt(1000)}))

	book := u.TPOrderMap.GetOrCreate(currency.BtcUsdt)
	o, err := order.New(currency.BtcUsdt, decimal.NewFromInt(100), decimal.NewFromInt(1), order.Buy)
	if err != nil {
		t.Fatalf("order.New: %v", err)
	}
	if err := o.Submit(asset.Asset{Type: currency.Usdt, Balance: decimal.NewFromInt(500)}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := book.InsertOrder(o); err != nil {
		t.Fatalf("InsertOrder: %v", err)
	}

	total := u.TotalAssets()
	usdt, err := total.Get(currency.Usdt)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !usdt.Balance().Equal(decimal.NewFromInt(1500)) {
		t.Errorf("total usdt = %s, want 1500 (1000 available + 500 locked)", usdt.Balance())
	}
}
