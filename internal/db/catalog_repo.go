package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"estatehub/internal/catalog"
	"estatehub/internal/types"
)

// CatalogRepo stores catalog definitions in the plans, add_ons,
// promo_campaigns and catalog_meta tables.
//
// Load issues its four reads concurrently and therefore needs a pool; Sync
// should run inside a transaction so a partial mirror is never visible.
type CatalogRepo struct {
	db     DBTX
	now    func() time.Time
	logger *slog.Logger
}

// NewCatalogRepo creates a CatalogRepo backed by the given connection.
func NewCatalogRepo(db DBTX, logger *slog.Logger) *CatalogRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogRepo{db: db, now: time.Now, logger: logger}
}

// Name identifies the repository as a catalog source.
func (r *CatalogRepo) Name() string { return "postgres" }

// Load reads every catalog row and builds a validated Catalog.
func (r *CatalogRepo) Load(ctx context.Context) (*catalog.Catalog, error) {
	var doc catalog.Document

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := r.loadVersion(gCtx)
		doc.Version = v
		return err
	})
	g.Go(func() error {
		plans, err := r.loadPlans(gCtx)
		doc.Plans = plans
		return err
	})
	g.Go(func() error {
		addOns, err := r.loadAddOns(gCtx)
		doc.AddOns = addOns
		return err
	})
	g.Go(func() error {
		campaigns, err := r.loadCampaigns(gCtx)
		doc.Campaigns = campaigns
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return doc.Build(r.now)
}

func (r *CatalogRepo) loadVersion(ctx context.Context) (string, error) {
	var version string
	err := r.db.QueryRow(ctx, `SELECT version FROM catalog_meta WHERE id = 1`).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", types.NewAppError(types.ErrCodeCatalogUnavailable, "catalog has never been synced", nil)
		}
		return "", types.NewAppError(types.ErrCodeInternalDB, "failed to read catalog version", err)
	}
	return version, nil
}

func (r *CatalogRepo) loadPlans(ctx context.Context) ([]types.Plan, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tier, name, monthly_price::text, annual_price::text, annual_savings::text,
		       max_properties, max_users, features
		FROM plans
		ORDER BY id`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query plans", err)
	}
	defer rows.Close()

	var plans []types.Plan
	for rows.Next() {
		var (
			p                        types.Plan
			tier                     string
			monthly, annual, savings string
			maxProperties, maxUsers  int
		)
		if err := rows.Scan(&p.ID, &tier, &p.Name, &monthly, &annual, &savings,
			&maxProperties, &maxUsers, &p.Features); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan plan row", err)
		}
		p.Tier = types.PlanTier(tier)
		p.MaxProperties = types.Limit(maxProperties)
		p.MaxUsers = types.Limit(maxUsers)
		if p.MonthlyPrice, p.AnnualPrice, p.AnnualSavings, err = parseAmounts(monthly, annual, savings); err != nil {
			return nil, fmt.Errorf("plan %q: %w", p.ID, err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating plan rows", err)
	}
	return plans, nil
}

func (r *CatalogRepo) loadAddOns(ctx context.Context) ([]types.AddOn, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, category, monthly_price::text, annual_price::text,
		       available_for, included_in
		FROM add_ons
		ORDER BY id`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query add-ons", err)
	}
	defer rows.Close()

	var addOns []types.AddOn
	for rows.Next() {
		var (
			a                        types.AddOn
			category, monthly        string
			annual                   *string
			availableFor, includedIn []string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &category, &monthly, &annual,
			&availableFor, &includedIn); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan add-on row", err)
		}
		a.Category = types.AddOnCategory(category)
		a.AvailableFor = toTiers(availableFor)
		a.IncludedIn = toTiers(includedIn)
		if a.MonthlyPrice, err = decimal.NewFromString(monthly); err != nil {
			return nil, fmt.Errorf("add-on %q monthly price: %w", a.ID, err)
		}
		if annual != nil {
			v, err := decimal.NewFromString(*annual)
			if err != nil {
				return nil, fmt.Errorf("add-on %q annual price: %w", a.ID, err)
			}
			a.AnnualPrice = &v
		}
		addOns = append(addOns, a)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating add-on rows", err)
	}
	return addOns, nil
}

func (r *CatalogRepo) loadCampaigns(ctx context.Context) ([]types.PromoCampaign, error) {
	rows, err := r.db.Query(ctx, `
		SELECT code, name, target_plan, discount_type, discount_value::text, duration,
		       max_uses, valid_from, valid_until
		FROM promo_campaigns
		ORDER BY code`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query campaigns", err)
	}
	defer rows.Close()

	var campaigns []types.PromoCampaign
	for rows.Next() {
		var (
			c                         types.PromoCampaign
			target, discountType, val string
		)
		if err := rows.Scan(&c.Code, &c.Name, &target, &discountType, &val, &c.Duration,
			&c.MaxUses, &c.ValidFrom, &c.ValidUntil); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan campaign row", err)
		}
		c.TargetPlan = types.PlanTier(target)
		c.DiscountType = types.DiscountType(discountType)
		if c.DiscountValue, err = decimal.NewFromString(val); err != nil {
			return nil, fmt.Errorf("campaign %q discount value: %w", c.Code, err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating campaign rows", err)
	}
	return campaigns, nil
}

// Sync mirrors c into the database: every entry is upserted, rows absent
// from c are deleted, and catalog_meta records the version.
func (r *CatalogRepo) Sync(ctx context.Context, c *catalog.Catalog) error {
	plans := c.Plans()
	planIDs := make([]string, 0, len(plans))
	for _, p := range plans {
		planIDs = append(planIDs, p.ID)
		_, err := r.db.Exec(ctx, `
			INSERT INTO plans (id, tier, name, monthly_price, annual_price, annual_savings,
			                   max_properties, max_users, features)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				tier = EXCLUDED.tier,
				name = EXCLUDED.name,
				monthly_price = EXCLUDED.monthly_price,
				annual_price = EXCLUDED.annual_price,
				annual_savings = EXCLUDED.annual_savings,
				max_properties = EXCLUDED.max_properties,
				max_users = EXCLUDED.max_users,
				features = EXCLUDED.features`,
			p.ID, string(p.Tier), p.Name,
			p.MonthlyPrice.String(), p.AnnualPrice.String(), p.AnnualSavings.String(),
			int(p.MaxProperties), int(p.MaxUsers), nonNil(p.Features),
		)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, fmt.Sprintf("failed to upsert plan %s", p.ID), err)
		}
	}

	addOns := c.AddOns()
	addOnIDs := make([]string, 0, len(addOns))
	for _, a := range addOns {
		addOnIDs = append(addOnIDs, a.ID)
		var annual *string
		if a.AnnualPrice != nil {
			s := a.AnnualPrice.String()
			annual = &s
		}
		_, err := r.db.Exec(ctx, `
			INSERT INTO add_ons (id, name, description, category, monthly_price, annual_price,
			                     available_for, included_in)
			VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				category = EXCLUDED.category,
				monthly_price = EXCLUDED.monthly_price,
				annual_price = EXCLUDED.annual_price,
				available_for = EXCLUDED.available_for,
				included_in = EXCLUDED.included_in`,
			a.ID, a.Name, a.Description, string(a.Category),
			a.MonthlyPrice.String(), annual,
			fromTiers(a.AvailableFor), fromTiers(a.IncludedIn),
		)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, fmt.Sprintf("failed to upsert add-on %s", a.ID), err)
		}
	}

	campaigns := c.Campaigns()
	codes := make([]string, 0, len(campaigns))
	for _, camp := range campaigns {
		codes = append(codes, camp.Code)
		_, err := r.db.Exec(ctx, `
			INSERT INTO promo_campaigns (code, name, target_plan, discount_type, discount_value,
			                             duration, max_uses, valid_from, valid_until)
			VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name,
				target_plan = EXCLUDED.target_plan,
				discount_type = EXCLUDED.discount_type,
				discount_value = EXCLUDED.discount_value,
				duration = EXCLUDED.duration,
				max_uses = EXCLUDED.max_uses,
				valid_from = EXCLUDED.valid_from,
				valid_until = EXCLUDED.valid_until`,
			camp.Code, camp.Name, string(camp.TargetPlan), string(camp.DiscountType),
			camp.DiscountValue.String(), camp.Duration, camp.MaxUses,
			camp.ValidFrom, camp.ValidUntil,
		)
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, fmt.Sprintf("failed to upsert campaign %s", camp.Code), err)
		}
	}

	prunes := []struct {
		sql string
		ids []string
	}{
		{`DELETE FROM plans WHERE NOT (id = ANY($1))`, planIDs},
		{`DELETE FROM add_ons WHERE NOT (id = ANY($1))`, addOnIDs},
		{`DELETE FROM promo_campaigns WHERE NOT (code = ANY($1))`, codes},
	}
	for _, p := range prunes {
		if _, err := r.db.Exec(ctx, p.sql, p.ids); err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to prune catalog rows", err)
		}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO catalog_meta (id, version, synced_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, synced_at = EXCLUDED.synced_at`,
		c.Version(), r.now().UTC(),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to record catalog version", err)
	}

	r.logger.Info("catalog synced to database",
		"version", c.Version(),
		"plans", len(plans),
		"add_ons", len(addOns),
		"campaigns", len(campaigns),
	)
	return nil
}

func parseAmounts(a, b, c string) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
	out := [3]decimal.Decimal{}
	for i, s := range []string{a, b, c} {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
		}
		out[i] = v
	}
	return out[0], out[1], out[2], nil
}

func toTiers(in []string) []types.PlanTier {
	out := make([]types.PlanTier, 0, len(in))
	for _, s := range in {
		out = append(out, types.PlanTier(s))
	}
	return out
}

func fromTiers(in []types.PlanTier) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		out = append(out, string(t))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
