// Package billing is the pricing engine's collaborator-facing surface.
//
// Service reads the catalog snapshot once per call, so every computation it
// performs sees a single catalog version even while a reload swaps in a new
// one.
package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"estatehub/internal/catalog"
	"estatehub/internal/coupon"
	"estatehub/internal/entitlement"
	"estatehub/internal/pricing"
	"estatehub/internal/types"
)

// Metrics receives one event per computed quote.
type Metrics interface {
	RecordQuote(ctx context.Context, tier types.PlanTier, interval types.BillingInterval, status types.CouponStatus)
}

// Usage is the redemption store consulted by Quote and written by Redeem.
type Usage interface {
	coupon.UsageCounter
	coupon.UsageRecorder
}

// ServiceConfig holds the dependencies of a Service. Store and Formatter are
// required; the rest have in-process defaults.
type ServiceConfig struct {
	Store     *catalog.Store
	Formatter *pricing.Formatter
	Usage     Usage
	Metrics   Metrics
	Clock     func() time.Time
	NewID     func() string
	Logger    *slog.Logger
}

// Service exposes catalog queries, pricing, coupons and quotes.
type Service struct {
	store     *catalog.Store
	formatter *pricing.Formatter
	usage     Usage
	metrics   Metrics
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// NewService creates a Service from cfg.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		store:     cfg.Store,
		formatter: cfg.Formatter,
		usage:     cfg.Usage,
		metrics:   cfg.Metrics,
		now:       cfg.Clock,
		newID:     cfg.NewID,
		logger:    cfg.Logger,
	}
	if s.usage == nil {
		s.usage = coupon.NewMemoryUsage()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CatalogVersion returns the version of the snapshot currently served.
func (s *Service) CatalogVersion() string {
	return s.store.Current().Version()
}

// GetPlan returns the plan for tier.
func (s *Service) GetPlan(tier types.PlanTier) (types.Plan, error) {
	return s.store.Current().Plan(tier)
}

// ListPlans returns every plan, cheapest first.
func (s *Service) ListPlans() []types.Plan {
	return s.store.Current().Plans()
}

// ListAddOns returns every add-on.
func (s *Service) ListAddOns() []types.AddOn {
	return s.store.Current().AddOns()
}

// ListAddOnsByCategory returns the add-ons in category.
func (s *Service) ListAddOnsByCategory(category types.AddOnCategory) ([]types.AddOn, error) {
	if !category.Valid() {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidCategory,
			"category must be one of usage, feature, premium", nil,
			map[string]any{"category": string(category)})
	}
	return s.store.Current().AddOnsByCategory(category), nil
}

// AvailableAddOns returns the add-ons tier can purchase.
func (s *Service) AvailableAddOns(tier types.PlanTier) ([]types.AddOn, error) {
	return entitlement.NewResolver(s.store.Current()).AvailableAddOns(tier)
}

// IncludedAddOns returns the add-ons bundled with tier.
func (s *Service) IncludedAddOns(tier types.PlanTier) ([]types.AddOn, error) {
	return entitlement.NewResolver(s.store.Current()).IncludedAddOns(tier)
}

// IsIncluded reports whether tier bundles the add-on.
func (s *Service) IsIncluded(addOnID string, tier types.PlanTier) (bool, error) {
	return entitlement.NewResolver(s.store.Current()).IsIncluded(addOnID, tier)
}

// TotalPrice returns the recurring price of tier with the add-ons for one
// interval.
func (s *Service) TotalPrice(tier types.PlanTier, interval types.BillingInterval, addOnIDs []string) (decimal.Decimal, error) {
	return pricing.NewCalculator(s.store.Current()).TotalPrice(tier, interval, addOnIDs)
}

// Breakdown itemizes TotalPrice.
func (s *Service) Breakdown(tier types.PlanTier, interval types.BillingInterval, addOnIDs []string) (*types.PriceBreakdown, error) {
	return pricing.NewCalculator(s.store.Current()).Breakdown(tier, interval, addOnIDs)
}

// ApplyCoupon discounts price with code for up to periods billing periods.
// Unknown or inactive codes return the price unchanged. Campaign targeting and
// usage limits are not consulted; Quote does that.
func (s *Service) ApplyCoupon(price decimal.Decimal, code string, periods int) types.CouponResult {
	return s.engine(s.store.Current()).Apply(price, code, periods)
}

// FormatMoney renders amount for display. The result is not authoritative
// and must not be parsed back.
func (s *Service) FormatMoney(amount decimal.Decimal) string {
	return s.formatter.Format(amount)
}

func (s *Service) engine(c *catalog.Catalog) *coupon.Engine {
	return coupon.NewEngine(c, coupon.WithClock(s.now))
}
