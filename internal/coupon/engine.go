// Package coupon applies promotional campaign discounts to computed prices.
//
// The engine is pure with respect to usage: it reports what a redemption
// would yield for a campaign definition. Redemption counting lives behind
// UsageCounter and UsageRecorder.
package coupon

import (
	"time"

	"github.com/shopspring/decimal"

	"estatehub/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Registry looks up campaigns by exact code.
type Registry interface {
	Campaign(code string) (types.PromoCampaign, bool)
}

// Engine evaluates coupon codes against a campaign registry at the current
// time.
type Engine struct {
	registry Registry
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the evaluation clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine returns an Engine over the registry.
func NewEngine(r Registry, opts ...Option) *Engine {
	e := &Engine{registry: r, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Active returns the campaign for code if it exists and the current time
// falls inside its validity window.
func (e *Engine) Active(code string) (types.PromoCampaign, bool) {
	c, ok := e.registry.Campaign(code)
	if !ok || !c.ActiveAt(e.now()) {
		return types.PromoCampaign{}, false
	}
	return c, true
}

// Apply discounts price with the campaign named by code for up to periods
// billing periods. An unknown or inactive code is not an error: the price is
// returned unchanged with a zero discount.
func (e *Engine) Apply(price decimal.Decimal, code string, periods int) types.CouponResult {
	c, ok := e.Active(code)
	if !ok {
		return noDiscount(price)
	}
	return Evaluate(c, price, periods)
}

// Evaluate computes the discount a campaign yields on price, ignoring its
// validity window and usage limits.
//
// The discounted periods are capped at the campaign duration, and the final
// price never drops below zero. A negative price is returned undiscounted.
// DiscountApplied is always price minus FinalPrice, so a capped discount
// reports what was actually taken off.
func Evaluate(c types.PromoCampaign, price decimal.Decimal, periods int) types.CouponResult {
	effective := min(periods, c.Duration)
	if effective < 1 || price.IsNegative() {
		return noDiscount(price)
	}
	p := decimal.NewFromInt(int64(effective))

	var discount decimal.Decimal
	switch c.DiscountType {
	case types.DiscountPercentage:
		discount = price.Mul(c.DiscountValue).Div(hundred).Mul(p)
	case types.DiscountFixedAmount:
		discount = c.DiscountValue.Mul(p)
	default:
		return noDiscount(price)
	}

	final := price.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return types.CouponResult{
		FinalPrice:       final,
		DiscountApplied:  price.Sub(final),
		EffectivePeriods: effective,
		Applied:          true,
	}
}

func noDiscount(price decimal.Decimal) types.CouponResult {
	return types.CouponResult{
		FinalPrice:      price,
		DiscountApplied: decimal.Zero,
	}
}
