package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Unlimited is the Limit sentinel for "no cap".
const Unlimited Limit = -1

// Limit is a bounded positive count or the Unlimited sentinel.
// It serializes as a JSON number, or the string "unlimited".
type Limit int

// IsUnlimited reports whether l is the Unlimited sentinel.
func (l Limit) IsUnlimited() bool {
	return l == Unlimited
}

// Valid reports whether l is Unlimited or a positive count.
func (l Limit) Valid() bool {
	return l == Unlimited || l > 0
}

// Allows reports whether a count of n stays within the limit.
func (l Limit) Allows(n int) bool {
	return l.IsUnlimited() || n <= int(l)
}

func (l Limit) String() string {
	if l.IsUnlimited() {
		return "unlimited"
	}
	return strconv.Itoa(int(l))
}

// MarshalJSON implements json.Marshaler.
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.IsUnlimited() {
		return []byte(`"unlimited"`), nil
	}
	return []byte(strconv.Itoa(int(l))), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Limit) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`"unlimited"`)) {
		*l = Unlimited
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("limit must be a positive integer or \"unlimited\": %w", err)
	}
	*l = Limit(n)
	return nil
}

// Plan is a subscription tier. Add-ons bundled with the plan are not stored
// here; they are derived from AddOn.IncludedIn.
type Plan struct {
	ID            string          `json:"id" validate:"required"`
	Tier          PlanTier        `json:"tier" validate:"required,oneof=starter professional business enterprise"`
	Name          string          `json:"name" validate:"required"`
	MonthlyPrice  decimal.Decimal `json:"monthly_price"`
	AnnualPrice   decimal.Decimal `json:"annual_price"`
	AnnualSavings decimal.Decimal `json:"annual_savings"`
	MaxProperties Limit           `json:"max_properties"`
	MaxUsers      Limit           `json:"max_users"`
	Features      []string        `json:"features,omitempty"`
}

// AddOn is a purchasable capability unit. A tier listed in IncludedIn is never
// charged for the add-on, whether or not it is also in AvailableFor.
type AddOn struct {
	ID           string           `json:"id" validate:"required"`
	Name         string           `json:"name" validate:"required"`
	Description  string           `json:"description,omitempty"`
	Category     AddOnCategory    `json:"category" validate:"required,oneof=usage feature premium"`
	MonthlyPrice decimal.Decimal  `json:"monthly_price"`
	AnnualPrice  *decimal.Decimal `json:"annual_price,omitempty"`
	AvailableFor []PlanTier       `json:"available_for"`
	IncludedIn   []PlanTier       `json:"included_in"`
}

// IsAvailableFor reports whether the add-on may be purchased for tier.
func (a AddOn) IsAvailableFor(tier PlanTier) bool {
	return slices.Contains(a.AvailableFor, tier)
}

// IsIncludedIn reports whether the add-on is bundled with tier.
func (a AddOn) IsIncludedIn(tier PlanTier) bool {
	return slices.Contains(a.IncludedIn, tier)
}

// PromoCampaign is a time-bounded discount rule identified by Code.
// ValidFrom and ValidUntil are both inclusive.
type PromoCampaign struct {
	Code          string          `json:"code" validate:"required"`
	Name          string          `json:"name,omitempty"`
	TargetPlan    PlanTier        `json:"target_plan" validate:"required"`
	DiscountType  DiscountType    `json:"discount_type" validate:"required,oneof=percentage fixed_amount"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Duration      int             `json:"duration" validate:"min=1"`
	MaxUses       *int            `json:"max_uses,omitempty" validate:"omitempty,min=1"`
	ValidFrom     time.Time       `json:"valid_from" validate:"required"`
	ValidUntil    time.Time       `json:"valid_until" validate:"required"`
}

// ActiveAt reports whether t falls inside [ValidFrom, ValidUntil].
func (c PromoCampaign) ActiveAt(t time.Time) bool {
	return !t.Before(c.ValidFrom) && !t.After(c.ValidUntil)
}

// PriceLine is one component of a computed price.
type PriceLine struct {
	Kind     string          `json:"kind"` // "plan" or "add_on"
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Included bool            `json:"included,omitempty"`
}

// PriceBreakdown is the itemized result of a price computation.
type PriceBreakdown struct {
	Tier     PlanTier        `json:"tier"`
	Interval BillingInterval `json:"interval"`
	Lines    []PriceLine     `json:"lines"`
	Total    decimal.Decimal `json:"total"`
}

// CouponResult is the outcome of applying a coupon to a price.
type CouponResult struct {
	FinalPrice       decimal.Decimal `json:"final_price"`
	DiscountApplied  decimal.Decimal `json:"discount_applied"`
	EffectivePeriods int             `json:"effective_periods"`
	Applied          bool            `json:"applied"`
}

// Quote is a priced selection, optionally discounted, computed against one
// catalog version.
type Quote struct {
	ID              string          `json:"id"`
	CatalogVersion  string          `json:"catalog_version"`
	Tier            PlanTier        `json:"tier"`
	Interval        BillingInterval `json:"interval"`
	Lines           []PriceLine     `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	CouponStatus    CouponStatus    `json:"coupon_status"`
	Discount        decimal.Decimal `json:"discount"`
	DiscountPeriods int             `json:"discount_periods"`
	Total           decimal.Decimal `json:"total"`
	ComputedAt      time.Time       `json:"computed_at"`
}

// Redemption records one use of a coupon by a subscriber.
type Redemption struct {
	Code         string    `json:"code"`
	SubscriberID string    `json:"subscriber_id"`
	QuoteID      string    `json:"quote_id,omitempty"`
	RedeemedAt   time.Time `json:"redeemed_at"`
}
