// Package pricing computes recurring subscription prices from catalog data.
//
// All arithmetic is exact (shopspring/decimal). Rounding for display happens
// only in Formatter; nothing here rounds an amount.
package pricing

import (
	"github.com/shopspring/decimal"

	"estatehub/internal/types"
)

// AnnualMonthsCharged is the catalog-wide convention for add-ons without an
// explicit annual price: a year costs ten months ("two months free").
const AnnualMonthsCharged = 10

var (
	monthsCharged = decimal.NewFromInt(AnnualMonthsCharged)
	monthsPerYear = decimal.NewFromInt(12)
)

// ImpliedAnnualPrice returns the annual price the catalog convention derives
// from a monthly price.
func ImpliedAnnualPrice(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(monthsCharged)
}

// FullYearPrice returns twelve months at the monthly price, the ceiling for
// any annual price.
func FullYearPrice(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(monthsPerYear)
}

// PlanPrice returns the plan's base price for the interval.
func PlanPrice(p types.Plan, interval types.BillingInterval) (decimal.Decimal, error) {
	switch interval {
	case types.IntervalMonthly:
		return p.MonthlyPrice, nil
	case types.IntervalAnnual:
		return p.AnnualPrice, nil
	default:
		return decimal.Zero, invalidInterval(interval)
	}
}

// AddOnPrice returns the add-on's price for the interval, falling back to
// ImpliedAnnualPrice when no explicit annual price is set.
func AddOnPrice(a types.AddOn, interval types.BillingInterval) (decimal.Decimal, error) {
	switch interval {
	case types.IntervalMonthly:
		return a.MonthlyPrice, nil
	case types.IntervalAnnual:
		if a.AnnualPrice != nil {
			return *a.AnnualPrice, nil
		}
		return ImpliedAnnualPrice(a.MonthlyPrice), nil
	default:
		return decimal.Zero, invalidInterval(interval)
	}
}

func invalidInterval(interval types.BillingInterval) error {
	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidInterval,
		"billing interval must be monthly or annual",
		nil,
		map[string]any{"interval": string(interval)},
	)
}
