package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"estatehub/internal/coupon"
	"estatehub/internal/pricing"
	"estatehub/internal/types"
)

// QuoteRequest describes a checkout preview.
type QuoteRequest struct {
	Tier     types.PlanTier        `json:"tier" validate:"required"`
	Interval types.BillingInterval `json:"interval" validate:"required"`
	AddOnIDs []string              `json:"add_on_ids"`

	// CouponCode is optional. Periods is how many billing periods the caller
	// wants discounted; zero means one.
	CouponCode   string `json:"coupon_code,omitempty"`
	Periods      int    `json:"periods,omitempty" validate:"min=0"`
	SubscriberID string `json:"subscriber_id,omitempty"`
}

// RedeemRequest records a subscriber's use of a coupon.
type RedeemRequest struct {
	Code         string         `json:"code" validate:"required"`
	SubscriberID string         `json:"subscriber_id" validate:"required"`
	Tier         types.PlanTier `json:"tier,omitempty"`
	QuoteID      string         `json:"quote_id,omitempty"`
}

// Quote prices a selection and, when a coupon is given, applies it subject to
// campaign targeting and usage limits. A coupon that cannot be used is
// reported through CouponStatus; it never fails the quote.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*types.Quote, error) {
	periods := req.Periods
	if periods < 0 {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidPeriods,
			"periods must not be negative", nil, map[string]any{"periods": periods})
	}
	if periods == 0 {
		periods = 1
	}

	snap := s.store.Current()
	breakdown, err := pricing.NewCalculator(snap).Breakdown(req.Tier, req.Interval, req.AddOnIDs)
	if err != nil {
		return nil, err
	}

	q := &types.Quote{
		ID:             s.newID(),
		CatalogVersion: snap.Version(),
		Tier:           breakdown.Tier,
		Interval:       breakdown.Interval,
		Lines:          breakdown.Lines,
		Subtotal:       breakdown.Total,
		CouponCode:     req.CouponCode,
		CouponStatus:   types.CouponNone,
		Discount:       decimal.Zero,
		Total:          breakdown.Total,
		ComputedAt:     s.now().UTC(),
	}

	if req.CouponCode != "" {
		camp, ok := s.engine(snap).Active(req.CouponCode)
		if !ok {
			q.CouponStatus = types.CouponUnavailable
		} else {
			status, err := s.couponStatus(ctx, camp, req)
			if err != nil {
				return nil, err
			}
			q.CouponStatus = status
			if status == types.CouponApplied {
				res := coupon.Evaluate(camp, breakdown.Total, periods)
				q.Discount = res.DiscountApplied
				q.DiscountPeriods = res.EffectivePeriods
				q.Total = res.FinalPrice
			}
		}
	}

	if s.metrics != nil {
		s.metrics.RecordQuote(ctx, q.Tier, q.Interval, q.CouponStatus)
	}
	s.logger.DebugContext(ctx, "quote computed",
		"quote_id", q.ID,
		"catalog_version", q.CatalogVersion,
		"tier", q.Tier,
		"interval", q.Interval,
		"coupon_status", q.CouponStatus,
		"total", q.Total.String(),
	)
	return q, nil
}

// couponStatus checks targeting, then per-subscriber reuse, then the
// campaign-wide cap.
func (s *Service) couponStatus(ctx context.Context, camp types.PromoCampaign, req QuoteRequest) (types.CouponStatus, error) {
	if camp.TargetPlan != req.Tier {
		return types.CouponNotApplicable, nil
	}

	if req.SubscriberID != "" {
		redeemed, err := s.usage.HasRedeemed(ctx, camp.Code, req.SubscriberID)
		if err != nil {
			return "", err
		}
		if redeemed {
			return types.CouponRedeemed, nil
		}
	}

	if camp.MaxUses != nil {
		used, err := s.usage.RedemptionCount(ctx, camp.Code)
		if err != nil {
			return "", err
		}
		if left, _ := coupon.Remaining(camp, used); left == 0 {
			return types.CouponExhausted, nil
		}
	}
	return types.CouponApplied, nil
}

// Redeem records a redemption of an active campaign. The usage store
// enforces the campaign's max uses and one redemption per subscriber.
func (s *Service) Redeem(ctx context.Context, req RedeemRequest) (*types.Redemption, error) {
	if req.Code == "" || req.SubscriberID == "" {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField,
			"code and subscriber_id are required", nil)
	}

	camp, ok := s.engine(s.store.Current()).Active(req.Code)
	if !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeNotFoundCampaign,
			"no active campaign for code", nil, map[string]any{"code": req.Code})
	}
	if req.Tier != "" && req.Tier != camp.TargetPlan {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationCouponIneligible,
			"coupon does not apply to tier", nil,
			map[string]any{"code": req.Code, "tier": string(req.Tier), "target_plan": string(camp.TargetPlan)})
	}

	r := types.Redemption{
		Code:         camp.Code,
		SubscriberID: req.SubscriberID,
		QuoteID:      req.QuoteID,
		RedeemedAt:   s.now().UTC(),
	}
	if err := s.usage.RecordRedemption(ctx, r, camp.MaxUses); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "coupon redeemed",
		"code", r.Code,
		"subscriber_id", r.SubscriberID,
		"quote_id", r.QuoteID,
	)
	return &r, nil
}
