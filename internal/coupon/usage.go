package coupon

import (
	"context"
	"sync"

	"estatehub/internal/types"
)

// UsageCounter reports how often campaigns have been redeemed.
type UsageCounter interface {
	RedemptionCount(ctx context.Context, code string) (int, error)
	HasRedeemed(ctx context.Context, code, subscriberID string) (bool, error)
}

// UsageRecorder persists redemptions. Implementations must refuse a
// redemption that would push the campaign past maxUses (nil means no cap)
// or that repeats an existing (code, subscriber) pair, returning
// conflict_coupon_exhausted or conflict_coupon_already_redeemed.
type UsageRecorder interface {
	RecordRedemption(ctx context.Context, r types.Redemption, maxUses *int) error
}

// Remaining returns how many redemptions a campaign has left given used.
// The second result is false when the campaign has no cap.
func Remaining(c types.PromoCampaign, used int) (int, bool) {
	if c.MaxUses == nil {
		return 0, false
	}
	return max(*c.MaxUses-used, 0), true
}

// ExhaustedError reports a campaign with no redemptions left.
func ExhaustedError(code string) *types.AppError {
	return types.NewAppErrorWithDetails(types.ErrCodeConflictCouponExhausted,
		"coupon has no remaining uses", nil, map[string]any{"code": code})
}

// AlreadyRedeemedError reports a subscriber redeeming the same code twice.
func AlreadyRedeemedError(code, subscriberID string) *types.AppError {
	return types.NewAppErrorWithDetails(types.ErrCodeConflictCouponRedeemed,
		"coupon already redeemed by subscriber", nil,
		map[string]any{"code": code, "subscriber_id": subscriberID})
}

// MemoryUsage is an in-process UsageCounter and UsageRecorder for
// deployments without a database. Counts are lost on restart.
type MemoryUsage struct {
	mu          sync.Mutex
	redemptions map[string]map[string]types.Redemption // code -> subscriber -> redemption
}

// NewMemoryUsage returns an empty MemoryUsage.
func NewMemoryUsage() *MemoryUsage {
	return &MemoryUsage{redemptions: make(map[string]map[string]types.Redemption)}
}

func (m *MemoryUsage) RedemptionCount(ctx context.Context, code string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redemptions[code]), nil
}

func (m *MemoryUsage) HasRedeemed(ctx context.Context, code, subscriberID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.redemptions[code][subscriberID]
	return ok, nil
}

func (m *MemoryUsage) RecordRedemption(ctx context.Context, r types.Redemption, maxUses *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bySubscriber := m.redemptions[r.Code]
	if _, ok := bySubscriber[r.SubscriberID]; ok {
		return AlreadyRedeemedError(r.Code, r.SubscriberID)
	}
	if maxUses != nil && len(bySubscriber) >= *maxUses {
		return ExhaustedError(r.Code)
	}
	if bySubscriber == nil {
		bySubscriber = make(map[string]types.Redemption)
		m.redemptions[r.Code] = bySubscriber
	}
	bySubscriber[r.SubscriberID] = r
	return nil
}
