package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"estatehub/internal/pricing"
	"estatehub/internal/types"
)

// Deviation records an explicit annual price that does not follow the
// monthly x10 convention. The explicit price is still the one charged.
type Deviation struct {
	Kind     string          `json:"kind"`
	ID       string          `json:"id"`
	Expected decimal.Decimal `json:"expected_annual_price"`
	Actual   decimal.Decimal `json:"actual_annual_price"`
}

func (d Deviation) String() string {
	return fmt.Sprintf("%s %q: annual price %s, convention implies %s", d.Kind, d.ID, d.Actual, d.Expected)
}

// Builder accumulates catalog entries and validates them as a whole in Build.
// A Builder is not safe for concurrent use.
type Builder struct {
	version   string
	now       func() time.Time
	validate  *validator.Validate
	plans     []types.Plan
	addOns    []types.AddOn
	campaigns []types.PromoCampaign
}

// NewBuilder returns an empty Builder for the given catalog version.
func NewBuilder(version string) *Builder {
	return &Builder{
		version:  version,
		now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WithClock overrides the time stamped as BuiltAt.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// AddPlan queues a plan.
func (b *Builder) AddPlan(p types.Plan) *Builder {
	b.plans = append(b.plans, clonePlan(p))
	return b
}

// AddAddOn queues an add-on.
func (b *Builder) AddAddOn(a types.AddOn) *Builder {
	b.addOns = append(b.addOns, cloneAddOn(a))
	return b
}

// AddCampaign queues a promotional campaign.
func (b *Builder) AddCampaign(c types.PromoCampaign) *Builder {
	b.campaigns = append(b.campaigns, cloneCampaign(c))
	return b
}

// Build validates every queued entry and returns the immutable Catalog.
// The first violation found is returned as a catalog integrity error;
// plans are checked before add-ons, add-ons before campaigns.
func (b *Builder) Build() (*Catalog, error) {
	c := &Catalog{
		version:   b.version,
		plans:     make(map[types.PlanTier]types.Plan, len(b.plans)),
		addOns:    make(map[string]types.AddOn, len(b.addOns)),
		campaigns: make(map[string]types.PromoCampaign, len(b.campaigns)),
	}

	if len(b.plans) == 0 {
		return nil, types.NewCatalogIntegrityError(types.EntryPlan, "", "catalog defines no plans")
	}

	for _, p := range b.plans {
		if err := b.checkPlan(c, &p); err != nil {
			return nil, err
		}
		c.plans[p.Tier] = p
		c.planOrder = append(c.planOrder, p.Tier)
	}
	sort.SliceStable(c.planOrder, func(i, j int) bool {
		pi, pj := c.plans[c.planOrder[i]], c.plans[c.planOrder[j]]
		if cmp := pi.MonthlyPrice.Cmp(pj.MonthlyPrice); cmp != 0 {
			return cmp < 0
		}
		return pi.Tier.Rank() < pj.Tier.Rank()
	})

	for _, a := range b.addOns {
		if err := b.checkAddOn(c, a); err != nil {
			return nil, err
		}
		c.addOns[a.ID] = a
		c.addOnOrder = append(c.addOnOrder, a.ID)
	}
	slices.Sort(c.addOnOrder)

	for _, camp := range b.campaigns {
		if err := b.checkCampaign(c, camp); err != nil {
			return nil, err
		}
		c.campaigns[camp.Code] = camp
		c.campaignOrder = append(c.campaignOrder, camp.Code)
	}
	slices.Sort(c.campaignOrder)

	c.builtAt = b.now().UTC()
	return c, nil
}

// checkPlan validates p and derives AnnualSavings when it was left zero.
func (b *Builder) checkPlan(c *Catalog, p *types.Plan) error {
	fail := func(reason string) error {
		return types.NewCatalogIntegrityError(types.EntryPlan, p.ID, reason)
	}

	if err := b.structError(p); err != nil {
		return fail(err.Error())
	}
	if _, dup := c.plans[p.Tier]; dup {
		return fail(fmt.Sprintf("duplicate tier %q", p.Tier))
	}
	for _, existing := range c.plans {
		if existing.ID == p.ID {
			return fail("duplicate plan id")
		}
	}
	if p.MonthlyPrice.IsNegative() || p.AnnualPrice.IsNegative() {
		return fail("prices must not be negative")
	}
	if p.MonthlyPrice.IsPositive() && p.AnnualPrice.IsZero() {
		return fail("annual price is missing or zero for a paid plan")
	}
	if !wholeCents(p.MonthlyPrice, p.AnnualPrice, p.AnnualSavings) {
		return fail("prices must not have more than two decimal places")
	}
	if !p.MaxProperties.Valid() || !p.MaxUsers.Valid() {
		return fail("limits must be positive or unlimited")
	}

	fullYear := pricing.FullYearPrice(p.MonthlyPrice)
	if p.AnnualPrice.GreaterThan(fullYear) {
		return fail(fmt.Sprintf("annual price %s exceeds twelve monthly payments %s", p.AnnualPrice, fullYear))
	}
	savings := fullYear.Sub(p.AnnualPrice)
	if p.AnnualSavings.IsZero() {
		p.AnnualSavings = savings
	} else if !p.AnnualSavings.Equal(savings) {
		return fail(fmt.Sprintf("annual savings %s does not match %s", p.AnnualSavings, savings))
	}

	if implied := pricing.ImpliedAnnualPrice(p.MonthlyPrice); !p.AnnualPrice.Equal(implied) {
		c.deviations = append(c.deviations, Deviation{
			Kind: types.EntryPlan, ID: p.ID, Expected: implied, Actual: p.AnnualPrice,
		})
	}
	return nil
}

func (b *Builder) checkAddOn(c *Catalog, a types.AddOn) error {
	fail := func(reason string) error {
		return types.NewCatalogIntegrityError(types.EntryAddOn, a.ID, reason)
	}

	if err := b.structError(&a); err != nil {
		return fail(err.Error())
	}
	if _, dup := c.addOns[a.ID]; dup {
		return fail("duplicate add-on id")
	}
	if a.MonthlyPrice.IsNegative() {
		return fail("monthly price must not be negative")
	}
	if a.AnnualPrice != nil && a.AnnualPrice.IsNegative() {
		return fail("annual price must not be negative")
	}
	if !wholeCents(a.MonthlyPrice) || (a.AnnualPrice != nil && !wholeCents(*a.AnnualPrice)) {
		return fail("prices must not have more than two decimal places")
	}
	if len(a.AvailableFor) == 0 && len(a.IncludedIn) == 0 {
		return fail("add-on is neither available for nor included in any tier")
	}
	for _, tier := range a.AvailableFor {
		if !c.HasTier(tier) {
			return fail(fmt.Sprintf("available_for references unknown tier %q", tier))
		}
	}
	for _, tier := range a.IncludedIn {
		if !c.HasTier(tier) {
			return fail(fmt.Sprintf("included_in references unknown tier %q", tier))
		}
	}

	if a.AnnualPrice != nil {
		if implied := pricing.ImpliedAnnualPrice(a.MonthlyPrice); !a.AnnualPrice.Equal(implied) {
			c.deviations = append(c.deviations, Deviation{
				Kind: types.EntryAddOn, ID: a.ID, Expected: implied, Actual: *a.AnnualPrice,
			})
		}
	}
	return nil
}

func (b *Builder) checkCampaign(c *Catalog, camp types.PromoCampaign) error {
	fail := func(reason string) error {
		return types.NewCatalogIntegrityError(types.EntryCampaign, camp.Code, reason)
	}

	if err := b.structError(&camp); err != nil {
		return fail(err.Error())
	}
	if _, dup := c.campaigns[camp.Code]; dup {
		return fail("duplicate campaign code")
	}
	if !c.HasTier(camp.TargetPlan) {
		return fail(fmt.Sprintf("target plan %q is not in the catalog", camp.TargetPlan))
	}
	if !camp.ValidFrom.Before(camp.ValidUntil) {
		return fail("valid_from must be before valid_until")
	}
	if camp.DiscountValue.IsNegative() {
		return fail("discount value must not be negative")
	}
	if camp.DiscountType == types.DiscountPercentage && camp.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return fail("percentage discount must not exceed 100")
	}
	if !wholeCents(camp.DiscountValue) {
		return fail("discount value must not have more than two decimal places")
	}
	return nil
}

// wholeCents reports whether every amount fits the two-decimal scale the
// catalog tables store.
func wholeCents(amounts ...decimal.Decimal) bool {
	for _, d := range amounts {
		if !d.Equal(d.Round(2)) {
			return false
		}
	}
	return true
}

// structError runs tag validation and condenses the first failure into a
// single readable reason.
func (b *Builder) structError(v any) error {
	err := b.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Errorf("field %s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("field %s failed %s", fe.Field(), fe.Tag())
	}
	return err
}
