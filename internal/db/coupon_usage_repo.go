package db

import (
	"context"

	"estatehub/internal/coupon"
	"estatehub/internal/types"
)

// CouponUsageRepo counts and records coupon redemptions.
//
// coupon_usage holds one counter row per code; coupon_redemptions holds one
// row per (code, subscriber_id). RecordRedemption claims a counter slot and
// inserts the redemption in a single statement, so the counter row lock
// serializes concurrent redemptions and a duplicate subscriber rolls the
// claim back.
type CouponUsageRepo struct {
	db DBTX
}

var (
	_ coupon.UsageCounter  = (*CouponUsageRepo)(nil)
	_ coupon.UsageRecorder = (*CouponUsageRepo)(nil)
)

// NewCouponUsageRepo creates a CouponUsageRepo backed by the given connection.
func NewCouponUsageRepo(db DBTX) *CouponUsageRepo {
	return &CouponUsageRepo{db: db}
}

// RedemptionCount returns how many times code has been redeemed.
func (r *CouponUsageRepo) RedemptionCount(ctx context.Context, code string) (int, error) {
	var uses int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE((SELECT uses FROM coupon_usage WHERE code = $1), 0)`,
		code,
	).Scan(&uses)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count coupon redemptions", err)
	}
	return uses, nil
}

// HasRedeemed reports whether the subscriber already used code.
func (r *CouponUsageRepo) HasRedeemed(ctx context.Context, code, subscriberID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupon_redemptions WHERE code = $1 AND subscriber_id = $2)`,
		code, subscriberID,
	).Scan(&exists)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to check coupon redemption", err)
	}
	return exists, nil
}

// RecordRedemption inserts the redemption unless the campaign has reached
// maxUses (nil means uncapped) or the subscriber already redeemed the code.
func (r *CouponUsageRepo) RecordRedemption(ctx context.Context, red types.Redemption, maxUses *int) error {
	var quoteID *string
	if red.QuoteID != "" {
		quoteID = &red.QuoteID
	}

	tag, err := r.db.Exec(ctx, `
		WITH claimed AS (
			INSERT INTO coupon_usage (code, uses)
			VALUES ($1, 1)
			ON CONFLICT (code) DO UPDATE SET uses = coupon_usage.uses + 1
			WHERE $5::int IS NULL OR coupon_usage.uses < $5::int
			RETURNING code
		)
		INSERT INTO coupon_redemptions (code, subscriber_id, quote_id, redeemed_at)
		SELECT code, $2, $3, $4 FROM claimed`,
		red.Code, red.SubscriberID, quoteID, red.RedeemedAt, maxUses,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.AlreadyRedeemedError(red.Code, red.SubscriberID)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to record coupon redemption", err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ExhaustedError(red.Code)
	}
	return nil
}
