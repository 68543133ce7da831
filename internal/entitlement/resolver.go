// Package entitlement decides which add-ons a plan tier already bundles and
// which it may still buy.
package entitlement

import "estatehub/internal/types"

// Catalog is the lookup surface the resolver needs.
type Catalog interface {
	HasTier(tier types.PlanTier) bool
	AddOn(id string) (types.AddOn, error)
	AddOns() []types.AddOn
}

// Resolver answers entitlement questions against one catalog snapshot.
type Resolver struct {
	catalog Catalog
}

// NewResolver returns a Resolver over c.
func NewResolver(c Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// IsIncluded reports whether the add-on is bundled with tier.
func (r *Resolver) IsIncluded(addOnID string, tier types.PlanTier) (bool, error) {
	if !r.catalog.HasTier(tier) {
		return false, types.NewUnknownTierError(tier)
	}
	a, err := r.catalog.AddOn(addOnID)
	if err != nil {
		return false, err
	}
	return a.IsIncludedIn(tier), nil
}

// AvailableAddOns returns the add-ons tier can genuinely purchase: offered
// for the tier and not already bundled with it.
func (r *Resolver) AvailableAddOns(tier types.PlanTier) ([]types.AddOn, error) {
	return r.filter(tier, func(a types.AddOn) bool {
		return a.IsAvailableFor(tier) && !a.IsIncludedIn(tier)
	})
}

// IncludedAddOns returns the add-ons bundled with tier.
func (r *Resolver) IncludedAddOns(tier types.PlanTier) ([]types.AddOn, error) {
	return r.filter(tier, func(a types.AddOn) bool {
		return a.IsIncludedIn(tier)
	})
}

// An unknown tier is an error rather than an empty set so catalog drift
// surfaces instead of hiding behind an empty list.
func (r *Resolver) filter(tier types.PlanTier, keep func(types.AddOn) bool) ([]types.AddOn, error) {
	if !r.catalog.HasTier(tier) {
		return nil, types.NewUnknownTierError(tier)
	}
	out := []types.AddOn{}
	for _, a := range r.catalog.AddOns() {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}
