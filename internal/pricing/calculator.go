package pricing

import (
	"github.com/shopspring/decimal"

	"estatehub/internal/types"
)

// Catalog is the read-only lookup surface the calculator needs.
// Both methods return typed not-found errors for unknown keys.
type Catalog interface {
	Plan(tier types.PlanTier) (types.Plan, error)
	AddOn(id string) (types.AddOn, error)
}

// Calculator composes a plan's base price with a selection of add-ons.
// It holds no mutable state; one Calculator per catalog snapshot.
type Calculator struct {
	catalog Catalog
}

// NewCalculator returns a Calculator over the given catalog.
func NewCalculator(c Catalog) *Calculator {
	return &Calculator{catalog: c}
}

// TotalPrice returns the recurring price of tier plus the requested add-ons
// for one billing interval.
func (c *Calculator) TotalPrice(
	tier types.PlanTier,
	interval types.BillingInterval,
	addOnIDs []string,
) (decimal.Decimal, error) {
	b, err := c.Breakdown(tier, interval, addOnIDs)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Total, nil
}

// Breakdown itemizes TotalPrice. The first line is always the plan.
//
// Rules:
//  1. Duplicate add-on ids are charged once; first-occurrence order is kept.
//  2. An unknown id fails with not_found_addon.
//  3. An add-on bundled with the tier contributes zero and is flagged Included.
//  4. An add-on neither bundled nor purchasable for the tier fails with
//     validation_addon_not_offered.
//  5. Otherwise the add-on's interval price is charged.
//
// No add-on price is negative (the catalog rejects it), so the total never
// decreases as add-ons are added.
func (c *Calculator) Breakdown(
	tier types.PlanTier,
	interval types.BillingInterval,
	addOnIDs []string,
) (*types.PriceBreakdown, error) {
	if !interval.Valid() {
		return nil, invalidInterval(interval)
	}

	plan, err := c.catalog.Plan(tier)
	if err != nil {
		return nil, err
	}
	base, err := PlanPrice(plan, interval)
	if err != nil {
		return nil, err
	}

	lines := make([]types.PriceLine, 0, len(addOnIDs)+1)
	lines = append(lines, types.PriceLine{
		Kind:   "plan",
		ID:     plan.ID,
		Name:   plan.Name,
		Amount: base,
	})
	total := base

	seen := make(map[string]struct{}, len(addOnIDs))
	for _, id := range addOnIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		addOn, err := c.catalog.AddOn(id)
		if err != nil {
			return nil, err
		}

		line := types.PriceLine{Kind: "add_on", ID: addOn.ID, Name: addOn.Name}
		switch {
		case addOn.IsIncludedIn(tier):
			line.Amount = decimal.Zero
			line.Included = true
		case addOn.IsAvailableFor(tier):
			price, err := AddOnPrice(addOn, interval)
			if err != nil {
				return nil, err
			}
			line.Amount = price
		default:
			return nil, types.NewAddOnNotOfferedError(addOn.ID, tier)
		}

		total = total.Add(line.Amount)
		lines = append(lines, line)
	}

	return &types.PriceBreakdown{
		Tier:     tier,
		Interval: interval,
		Lines:    lines,
		Total:    total,
	}, nil
}
