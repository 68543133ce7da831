package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"estatehub/internal/types"
)

// BuiltinVersion is the version reported by the compiled-in catalog.
const BuiltinVersion = "builtin-2026.10"

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func moneyPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func intPtr(v int) *int { return &v }

var (
	belowEnterprise    = []types.PlanTier{types.TierStarter, types.TierProfessional, types.TierBusiness}
	businessEnterprise = []types.PlanTier{types.TierBusiness, types.TierEnterprise}
)

// DefaultPlans returns the compiled-in plan set.
func DefaultPlans() []types.Plan {
	return []types.Plan{
		{
			ID: "plan_starter", Tier: types.TierStarter, Name: "Starter",
			MonthlyPrice: money(35), AnnualPrice: money(350),
			MaxProperties: 10, MaxUsers: 2,
			Features: []string{"property_listings", "tenant_records", "rent_tracking", "email_support"},
		},
		{
			ID: "plan_professional", Tier: types.TierProfessional, Name: "Professional",
			MonthlyPrice: money(59), AnnualPrice: money(590),
			MaxProperties: 50, MaxUsers: 5,
			Features: []string{"property_listings", "tenant_records", "rent_tracking", "maintenance_requests", "document_storage", "email_support"},
		},
		{
			ID: "plan_business", Tier: types.TierBusiness, Name: "Business",
			MonthlyPrice: money(129), AnnualPrice: money(1290),
			MaxProperties: 200, MaxUsers: 20,
			Features: []string{"property_listings", "tenant_records", "rent_tracking", "maintenance_requests", "document_storage", "owner_statements", "role_permissions", "chat_support"},
		},
		{
			ID: "plan_enterprise", Tier: types.TierEnterprise, Name: "Enterprise",
			MonthlyPrice: money(299), AnnualPrice: money(2990),
			MaxProperties: types.Unlimited, MaxUsers: types.Unlimited,
			Features: []string{"property_listings", "tenant_records", "rent_tracking", "maintenance_requests", "document_storage", "owner_statements", "role_permissions", "sso", "audit_log", "dedicated_manager"},
		},
	}
}

// DefaultAddOns returns the compiled-in add-on set.
func DefaultAddOns() []types.AddOn {
	return []types.AddOn{
		{
			ID: "extra_properties", Name: "Extra properties pack",
			Description: "Ten additional managed properties.",
			Category:    types.CategoryUsage, MonthlyPrice: money(10),
			AvailableFor: belowEnterprise,
		},
		{
			ID: "extra_users", Name: "Extra user seat",
			Description: "One additional team member.",
			Category:    types.CategoryUsage, MonthlyPrice: money(5),
			AvailableFor: belowEnterprise,
		},
		{
			ID: "advanced_reports", Name: "Advanced reports",
			Description: "Occupancy, arrears and yield dashboards.",
			Category:    types.CategoryFeature, MonthlyPrice: money(15),
			AvailableFor: []types.PlanTier{types.TierProfessional},
			IncludedIn:   businessEnterprise,
		},
		{
			ID: "iot_monitoring", Name: "IoT monitoring",
			Description: "Sensor alerts for leaks, temperature and access.",
			Category:    types.CategoryFeature, MonthlyPrice: money(25),
			AvailableFor: []types.PlanTier{types.TierProfessional, types.TierBusiness},
			IncludedIn:   []types.PlanTier{types.TierEnterprise},
		},
		{
			ID: "incident_automation", Name: "Incident automation",
			Description: "Automatic contractor dispatch for maintenance incidents.",
			Category:    types.CategoryFeature, MonthlyPrice: money(12), AnnualPrice: moneyPtr(100),
			AvailableFor: []types.PlanTier{types.TierStarter, types.TierProfessional},
			IncludedIn:   businessEnterprise,
		},
		{
			ID: "tenant_portal", Name: "Tenant portal",
			Description: "Self-service portal for rent payments and requests.",
			Category:    types.CategoryFeature, MonthlyPrice: money(9),
			AvailableFor: []types.PlanTier{types.TierStarter},
			IncludedIn:   []types.PlanTier{types.TierProfessional, types.TierBusiness, types.TierEnterprise},
		},
		{
			ID: "api_access", Name: "API access",
			Description: "REST API and webhooks.",
			Category:    types.CategoryPremium, MonthlyPrice: money(39),
			AvailableFor: []types.PlanTier{types.TierBusiness},
			IncludedIn:   []types.PlanTier{types.TierEnterprise},
		},
		{
			ID: "white_label", Name: "White label",
			Description: "Custom domain and branding.",
			Category:    types.CategoryPremium, MonthlyPrice: money(79),
			AvailableFor: businessEnterprise,
		},
		{
			ID: "priority_support", Name: "Priority support",
			Description: "Four-hour response time, phone line.",
			Category:    types.CategoryPremium, MonthlyPrice: money(29),
			AvailableFor: belowEnterprise,
			IncludedIn:   []types.PlanTier{types.TierEnterprise},
		},
	}
}

// DefaultCampaigns returns the compiled-in promotional campaigns.
func DefaultCampaigns() []types.PromoCampaign {
	return []types.PromoCampaign{
		{
			Code: "LAUNCH50", Name: "Launch offer",
			TargetPlan: types.TierProfessional, DiscountType: types.DiscountPercentage,
			DiscountValue: money(50), Duration: 1, MaxUses: intPtr(500),
			ValidFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidUntil: time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			Code: "ANNUAL20", Name: "Business annual upgrade",
			TargetPlan: types.TierBusiness, DiscountType: types.DiscountPercentage,
			DiscountValue: money(20), Duration: 12,
			ValidFrom:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			ValidUntil: time.Date(2027, 5, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			Code: "WELCOME10", Name: "Starter welcome credit",
			TargetPlan: types.TierStarter, DiscountType: types.DiscountFixedAmount,
			DiscountValue: money(10), Duration: 3,
			ValidFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ValidUntil: time.Date(2027, 12, 31, 23, 59, 59, 0, time.UTC),
		},
	}
}

// Default builds the compiled-in catalog.
func Default() (*Catalog, error) {
	b := NewBuilder(BuiltinVersion)
	for _, p := range DefaultPlans() {
		b.AddPlan(p)
	}
	for _, a := range DefaultAddOns() {
		b.AddAddOn(a)
	}
	for _, c := range DefaultCampaigns() {
		b.AddCampaign(c)
	}
	return b.Build()
}

// MustDefault is Default for tests and static wiring; it panics on an
// integrity error, which would be a programming mistake in this file.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}
