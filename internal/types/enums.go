package types

// PlanTier identifies a subscription level. Tiers are totally ordered by
// capability: starter < professional < business < enterprise.
type PlanTier string

const (
	TierStarter      PlanTier = "starter"
	TierProfessional PlanTier = "professional"
	TierBusiness     PlanTier = "business"
	TierEnterprise   PlanTier = "enterprise"
)

// AllTiers lists every known tier in ascending order.
var AllTiers = []PlanTier{TierStarter, TierProfessional, TierBusiness, TierEnterprise}

// Rank returns the position of the tier in the total order, or -1 for an
// unrecognized tier.
func (t PlanTier) Rank() int {
	switch t {
	case TierStarter:
		return 0
	case TierProfessional:
		return 1
	case TierBusiness:
		return 2
	case TierEnterprise:
		return 3
	default:
		return -1
	}
}

// Valid reports whether t is one of the enumerated tiers.
func (t PlanTier) Valid() bool {
	return t.Rank() >= 0
}

// BillingInterval is the recurrence unit a price is quoted for.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

// Valid reports whether i is a supported interval.
func (i BillingInterval) Valid() bool {
	return i == IntervalMonthly || i == IntervalAnnual
}

// AddOnCategory groups add-ons for display and filtering.
type AddOnCategory string

const (
	CategoryUsage   AddOnCategory = "usage"
	CategoryFeature AddOnCategory = "feature"
	CategoryPremium AddOnCategory = "premium"
)

// Valid reports whether c is a known category.
func (c AddOnCategory) Valid() bool {
	switch c {
	case CategoryUsage, CategoryFeature, CategoryPremium:
		return true
	default:
		return false
	}
}

// DiscountType determines how a campaign's DiscountValue is interpreted.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// CouponStatus describes the outcome of a coupon evaluation inside a quote.
// Only CouponApplied carries a discount; every other status leaves the price
// untouched.
type CouponStatus string

const (
	CouponNone          CouponStatus = "none"
	CouponApplied       CouponStatus = "applied"
	CouponUnavailable   CouponStatus = "unavailable"    // unknown code or outside its window
	CouponNotApplicable CouponStatus = "not_applicable" // campaign targets another tier
	CouponExhausted     CouponStatus = "exhausted"      // max_uses reached
	CouponRedeemed      CouponStatus = "already_redeemed"
)
