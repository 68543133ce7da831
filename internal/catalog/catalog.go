// Package catalog holds the immutable registry of plans, add-ons and
// promotional campaigns.
//
// A Catalog is only obtainable from Builder.Build, which proves every
// cross-reference resolves before the value exists. Accessors return copies;
// nothing handed out aliases the registry's internal state, so a *Catalog can
// be shared freely between goroutines.
package catalog

import (
	"slices"
	"time"

	"estatehub/internal/types"
)

// Catalog is a validated, read-only snapshot of catalog data.
type Catalog struct {
	version string
	builtAt time.Time

	plans     map[types.PlanTier]types.Plan
	planOrder []types.PlanTier // ascending monthly price, ties by tier rank

	addOns     map[string]types.AddOn
	addOnOrder []string

	campaigns     map[string]types.PromoCampaign
	campaignOrder []string

	deviations []Deviation
}

// Version identifies the catalog revision the snapshot was built from.
func (c *Catalog) Version() string { return c.version }

// BuiltAt is when the snapshot passed validation.
func (c *Catalog) BuiltAt() time.Time { return c.builtAt }

// Plan returns the plan for tier, or an unknown-tier error.
func (c *Catalog) Plan(tier types.PlanTier) (types.Plan, error) {
	p, ok := c.plans[tier]
	if !ok {
		return types.Plan{}, types.NewUnknownTierError(tier)
	}
	return clonePlan(p), nil
}

// HasTier reports whether the catalog defines tier.
func (c *Catalog) HasTier(tier types.PlanTier) bool {
	_, ok := c.plans[tier]
	return ok
}

// Plans returns every plan ordered by ascending monthly price.
func (c *Catalog) Plans() []types.Plan {
	out := make([]types.Plan, 0, len(c.planOrder))
	for _, tier := range c.planOrder {
		out = append(out, clonePlan(c.plans[tier]))
	}
	return out
}

// AddOn returns the add-on with the given id, or an unknown-add-on error.
func (c *Catalog) AddOn(id string) (types.AddOn, error) {
	a, ok := c.addOns[id]
	if !ok {
		return types.AddOn{}, types.NewUnknownAddOnError(id)
	}
	return cloneAddOn(a), nil
}

// AddOns returns every add-on ordered by id.
func (c *Catalog) AddOns() []types.AddOn {
	return c.filterAddOns(func(types.AddOn) bool { return true })
}

// AddOnsByCategory returns the add-ons in category, ordered by id.
func (c *Catalog) AddOnsByCategory(category types.AddOnCategory) []types.AddOn {
	return c.filterAddOns(func(a types.AddOn) bool { return a.Category == category })
}

func (c *Catalog) filterAddOns(keep func(types.AddOn) bool) []types.AddOn {
	out := make([]types.AddOn, 0, len(c.addOnOrder))
	for _, id := range c.addOnOrder {
		a := c.addOns[id]
		if keep(a) {
			out = append(out, cloneAddOn(a))
		}
	}
	return out
}

// Campaign looks up a campaign by its exact, case-sensitive code.
func (c *Catalog) Campaign(code string) (types.PromoCampaign, bool) {
	camp, ok := c.campaigns[code]
	if !ok {
		return types.PromoCampaign{}, false
	}
	return cloneCampaign(camp), true
}

// Campaigns returns every campaign ordered by code.
func (c *Catalog) Campaigns() []types.PromoCampaign {
	out := make([]types.PromoCampaign, 0, len(c.campaignOrder))
	for _, code := range c.campaignOrder {
		out = append(out, cloneCampaign(c.campaigns[code]))
	}
	return out
}

// Deviations lists entries whose explicit annual price departs from the
// monthly x10 convention. They are not errors.
func (c *Catalog) Deviations() []Deviation {
	return slices.Clone(c.deviations)
}

func clonePlan(p types.Plan) types.Plan {
	p.Features = slices.Clone(p.Features)
	return p
}

func cloneAddOn(a types.AddOn) types.AddOn {
	a.AvailableFor = slices.Clone(a.AvailableFor)
	a.IncludedIn = slices.Clone(a.IncludedIn)
	if a.AnnualPrice != nil {
		v := *a.AnnualPrice
		a.AnnualPrice = &v
	}
	return a
}

func cloneCampaign(c types.PromoCampaign) types.PromoCampaign {
	if c.MaxUses != nil {
		v := *c.MaxUses
		c.MaxUses = &v
	}
	return c
}
