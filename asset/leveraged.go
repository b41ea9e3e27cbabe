package asset

import (
	"github.com/shopspring/decimal"
	"github.com/ridgeline-quant/gridback/currency"
)

// LeveragedAsset is a position in a futures pair: a base-currency
// contract quantity (sign encodes long/short), a nominal quote-currency
// exposure, and the margin collateral backing it. Quote + Margin is
// invariant across Update calls; only the split between them moves as
// the mark price changes.
type LeveragedAsset struct {
	PairType currency.PairType
	Base     Asset
	Quote    Asset
	Margin   Asset
}

// NewLeveraged constructs a leveraged position. baseBalance's sign
// selects long (positive) or short (negative). margin must already be
// of the pair's quote currency.
func NewLeveraged(pairType currency.PairType, baseBalance decimal.Decimal, margin Asset, price decimal.Decimal) (LeveragedAsset, error) {
	quoteType := pairType.QuoteCurrency()
	if margin.Type != quoteType {
		return LeveragedAsset{}, &MarginAssetTypeMismatchError{Actual: margin.Type, Expected: quoteType, Returned: margin}
	}
	base := Asset{Type: pairType.BaseCurrency(), Balance: baseBalance}
	quote := Asset{Type: quoteType, Balance: baseBalance.Mul(price).Neg()}
	return LeveragedAsset{
		PairType: pairType,
		Base:     base,
		Quote:    quote,
		Margin:   margin,
	}, nil
}

// Update revalues the nominal quote exposure to -(base*price), moving
// the delta into margin. quote+margin (and therefore the liquidation
// price) is unchanged by this call.
func (l *LeveragedAsset) Update(price decimal.Decimal) {
	diffQuote := l.Base.Balance.Mul(price).Add(l.Quote.Balance)
	diff := l.Quote.SplitAllowNegative(diffQuote)
	_ = l.Margin.Merge(diff)
}

// Direction reports Long when the nominal quote exposure is negative.
func (l *LeveragedAsset) Direction() Direction {
	if l.Quote.Balance.IsNegative() {
		return Long
	}
	return Short
}

// Leverage returns |quote/margin|, always non-negative.
func (l *LeveragedAsset) Leverage() decimal.Decimal {
	if l.Margin.Balance.IsZero() {
		return decimal.Zero
	}
	return l.Quote.Balance.Div(l.Margin.Balance).Abs()
}

// LiquidationPrice returns -(quote+margin)/base, invariant under Update.
func (l *LeveragedAsset) LiquidationPrice() decimal.Decimal {
	if l.Base.Balance.IsZero() {
		return decimal.Zero
	}
	return l.Quote.Balance.Add(l.Margin.Balance).Neg().Div(l.Base.Balance)
}

// MarginTopUp merges additional collateral into the margin side.
func (l *LeveragedAsset) MarginTopUp(margin Asset) error {
	if l.Margin.Type != margin.Type {
		return &MarginAssetTypeMismatchError{Actual: margin.Type, Expected: l.Margin.Type, Returned: margin}
	}
	return l.Margin.Merge(margin)
}

// MarginWithdraw splits amount off the margin side.
func (l *LeveragedAsset) MarginWithdraw(amount decimal.Decimal) (Asset, error) {
	withdrawn, err := l.Margin.Split(amount)
	if err != nil {
		if ne, ok := err.(*NotEnoughError); ok {
			return Asset{}, &MarginNotEnoughError{Remain: ne.Remain, Required: ne.Required}
		}
		return Asset{}, err
	}
	return withdrawn, nil
}

// Merge combines other into l. All three components (base, quote,
// margin) must match type, and the pair type must match; the first
// mismatch found wins and returns other intact inside the error.
func (l *LeveragedAsset) Merge(other LeveragedAsset) error {
	if l.PairType != other.PairType {
		return &PairTypeMismatchError{Actual: other.PairType, Expected: l.PairType, Returned: other}
	}
	if l.Base.Type != other.Base.Type {
		return &BaseTypeMismatchError{Actual: other.Base.Type, Expected: l.Base.Type, Returned: other}
	}
	if l.Quote.Type != other.Quote.Type {
		return &QuoteTypeMismatchError{Actual: other.Quote.Type, Expected: l.Quote.Type, Returned: other}
	}
	if l.Margin.Type != other.Margin.Type {
		return &MarginTypeMismatchError{Actual: other.Margin.Type, Expected: l.Margin.Type, Returned: other}
	}
	_ = l.Base.Merge(other.Base)
	_ = l.Quote.Merge(other.Quote)
	_ = l.Margin.Merge(other.Margin)
	return nil
}

// Split carves out a new position proportional to deltaBase/base across
// all three components. deltaBase may be negative.
func (l *LeveragedAsset) Split(deltaBase decimal.Decimal) LeveragedAsset {
	remainingBase := l.Base.Balance
	quoteRatioBalance := l.Quote.Balance.Mul(deltaBase).Div(remainingBase)
	marginRatioBalance := l.Margin.Balance.Mul(deltaBase).Div(remainingBase)

	newBase := l.Base.SplitAllowNegative(deltaBase)
	newQuote := l.Quote.SplitAllowNegative(quoteRatioBalance)
	newMargin := l.Margin.SplitAllowNegative(marginRatioBalance)

	return LeveragedAsset{
		PairType: l.PairType,
		Base:     newBase,
		Quote:    newQuote,
		Margin:   newMargin,
	}
}
