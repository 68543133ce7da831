package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/catalog"
	"estatehub/internal/pricing"
	"estatehub/internal/types"
)

func newCalculator(t *testing.T) *pricing.Calculator {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return pricing.NewCalculator(c)
}

func assertAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(want).Equal(got), "want %d, got %s", want, got)
}

func TestTotalPrice_PlanOnly(t *testing.T) {
	calc := newCalculator(t)

	monthly, err := calc.TotalPrice(types.TierStarter, types.IntervalMonthly, nil)
	require.NoError(t, err)
	assertAmount(t, 35, monthly)

	annual, err := calc.TotalPrice(types.TierStarter, types.IntervalAnnual, nil)
	require.NoError(t, err)
	assertAmount(t, 350, annual)
}

func TestTotalPrice_PurchasedVersusBundled(t *testing.T) {
	calc := newCalculator(t)

	pro, err := calc.TotalPrice(types.TierProfessional, types.IntervalMonthly, []string{"advanced_reports"})
	require.NoError(t, err)
	assertAmount(t, 74, pro)

	business, err := calc.TotalPrice(types.TierBusiness, types.IntervalMonthly, []string{"advanced_reports"})
	require.NoError(t, err)
	assertAmount(t, 129, business)
}

func TestTotalPrice_UnknownAddOn(t *testing.T) {
	calc := newCalculator(t)

	_, err := calc.TotalPrice(types.TierStarter, types.IntervalMonthly, []string{"nonexistent"})
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundAddOn, appErr.Code)
	assert.Equal(t, "nonexistent", appErr.Details["add_on_id"])
}

func TestTotalPrice_UnknownTier(t *testing.T) {
	calc := newCalculator(t)

	_, err := calc.TotalPrice("platinum", types.IntervalMonthly, nil)
	assert.True(t, types.IsCode(err, types.ErrCodeNotFoundTier))
}

func TestTotalPrice_InvalidInterval(t *testing.T) {
	calc := newCalculator(t)

	_, err := calc.TotalPrice(types.TierStarter, "weekly", nil)
	assert.True(t, types.IsCode(err, types.ErrCodeValidationInvalidInterval))
}

func TestTotalPrice_NotOffered(t *testing.T) {
	calc := newCalculator(t)

	// api_access is sold to business only and bundled with enterprise.
	_, err := calc.TotalPrice(types.TierStarter, types.IntervalMonthly, []string{"api_access"})
	assert.True(t, types.IsCode(err, types.ErrCodeValidationAddOnNotOffered))
}

func TestTotalPrice_IncludedAddOnsAreFree(t *testing.T) {
	c := catalog.MustDefault()
	calc := pricing.NewCalculator(c)

	for _, tier := range types.AllTiers {
		plan, err := c.Plan(tier)
		require.NoError(t, err)

		var included []string
		for _, a := range c.AddOns() {
			if a.IsIncludedIn(tier) {
				included = append(included, a.ID)
			}
		}

		for _, interval := range []types.BillingInterval{types.IntervalMonthly, types.IntervalAnnual} {
			base, err := pricing.PlanPrice(plan, interval)
			require.NoError(t, err)

			total, err := calc.TotalPrice(tier, interval, included)
			require.NoError(t, err)
			assert.True(t, base.Equal(total), "tier %s %s", tier, interval)
		}
	}
}

func TestTotalPrice_Monotonic(t *testing.T) {
	calc := newCalculator(t)
	selection := []string{"extra_properties", "extra_users", "advanced_reports", "iot_monitoring", "incident_automation"}

	prev := decimal.Zero
	for i := 0; i <= len(selection); i++ {
		total, err := calc.TotalPrice(types.TierProfessional, types.IntervalAnnual, selection[:i])
		require.NoError(t, err)
		assert.True(t, total.GreaterThanOrEqual(prev), "adding %v decreased the total", selection[:i])
		prev = total
	}
}

func TestTotalPrice_IdempotentAndDeduplicated(t *testing.T) {
	calc := newCalculator(t)
	ids := []string{"extra_users", "priority_support"}

	first, err := calc.TotalPrice(types.TierStarter, types.IntervalMonthly, ids)
	require.NoError(t, err)
	second, err := calc.TotalPrice(types.TierStarter, types.IntervalMonthly, ids)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assertAmount(t, 69, first)

	dup, err := calc.TotalPrice(types.TierStarter, types.IntervalMonthly, []string{"extra_users", "priority_support", "extra_users"})
	require.NoError(t, err)
	assert.True(t, first.Equal(dup))
}

func TestTotalPrice_AnnualAddOnPricing(t *testing.T) {
	calc := newCalculator(t)

	// extra_users follows the x10 convention; incident_automation has an
	// explicit annual price of 100.
	total, err := calc.TotalPrice(types.TierStarter, types.IntervalAnnual, []string{"extra_users", "incident_automation"})
	require.NoError(t, err)
	assertAmount(t, 350+50+100, total)
}

func TestBreakdown_Lines(t *testing.T) {
	calc := newCalculator(t)

	b, err := calc.Breakdown(types.TierProfessional, types.IntervalMonthly,
		[]string{"tenant_portal", "advanced_reports", "tenant_portal"})
	require.NoError(t, err)

	require.Len(t, b.Lines, 3)
	assert.Equal(t, "plan", b.Lines[0].Kind)
	assert.Equal(t, "plan_professional", b.Lines[0].ID)

	assert.Equal(t, "tenant_portal", b.Lines[1].ID)
	assert.True(t, b.Lines[1].Included)
	assert.True(t, b.Lines[1].Amount.IsZero())

	assert.Equal(t, "advanced_reports", b.Lines[2].ID)
	assert.False(t, b.Lines[2].Included)
	assertAmount(t, 15, b.Lines[2].Amount)

	assertAmount(t, 74, b.Total)
}
