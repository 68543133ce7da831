package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/billing"
	"estatehub/internal/core"
	"estatehub/internal/types"
)

// =============================================================================
// Mock Pricing Service
// =============================================================================

type mockPricingService struct {
	getPlanFn    func(tier types.PlanTier) (types.Plan, error)
	byCategoryFn func(category types.AddOnCategory) ([]types.AddOn, error)
	availableFn  func(tier types.PlanTier) ([]types.AddOn, error)
	includedFn   func(tier types.PlanTier) ([]types.AddOn, error)
	applyFn      func(price decimal.Decimal, code string, periods int) types.CouponResult
	quoteFn      func(ctx context.Context, req billing.QuoteRequest) (*types.Quote, error)
	redeemFn     func(ctx context.Context, req billing.RedeemRequest) (*types.Redemption, error)

	capturedQuote  *billing.QuoteRequest
	capturedRedeem *billing.RedeemRequest
}

func (m *mockPricingService) CatalogVersion() string { return "test-v1" }

func (m *mockPricingService) GetPlan(tier types.PlanTier) (types.Plan, error) {
	if m.getPlanFn != nil {
		return m.getPlanFn(tier)
	}
	return types.Plan{}, types.NewUnknownTierError(tier)
}

func (m *mockPricingService) ListPlans() []types.Plan {
	return []types.Plan{{ID: "plan_starter", Tier: types.TierStarter, MonthlyPrice: decimal.NewFromInt(35)}}
}

func (m *mockPricingService) ListAddOns() []types.AddOn {
	return []types.AddOn{{ID: "extra_users"}, {ID: "white_label"}}
}

func (m *mockPricingService) ListAddOnsByCategory(category types.AddOnCategory) ([]types.AddOn, error) {
	if m.byCategoryFn != nil {
		return m.byCategoryFn(category)
	}
	return []types.AddOn{}, nil
}

func (m *mockPricingService) AvailableAddOns(tier types.PlanTier) ([]types.AddOn, error) {
	if m.availableFn != nil {
		return m.availableFn(tier)
	}
	return []types.AddOn{}, nil
}

func (m *mockPricingService) IncludedAddOns(tier types.PlanTier) ([]types.AddOn, error) {
	if m.includedFn != nil {
		return m.includedFn(tier)
	}
	return []types.AddOn{}, nil
}

func (m *mockPricingService) ApplyCoupon(price decimal.Decimal, code string, periods int) types.CouponResult {
	if m.applyFn != nil {
		return m.applyFn(price, code, periods)
	}
	return types.CouponResult{FinalPrice: price, DiscountApplied: decimal.Zero}
}

func (m *mockPricingService) FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " EUR"
}

func (m *mockPricingService) Quote(ctx context.Context, req billing.QuoteRequest) (*types.Quote, error) {
	m.capturedQuote = &req
	if m.quoteFn != nil {
		return m.quoteFn(ctx, req)
	}
	return &types.Quote{ID: "q-1", CatalogVersion: "test-v1", Subtotal: decimal.NewFromInt(35), Total: decimal.NewFromInt(35)}, nil
}

func (m *mockPricingService) Redeem(ctx context.Context, req billing.RedeemRequest) (*types.Redemption, error) {
	m.capturedRedeem = &req
	if m.redeemFn != nil {
		return m.redeemFn(ctx, req)
	}
	return &types.Redemption{Code: req.Code, SubscriberID: req.SubscriberID}, nil
}

// =============================================================================
// Helpers
// =============================================================================

func newTestPricingRouter(svc PricingService) http.Handler {
	h := NewPricingHandler(svc, nil, nil)
	r := chi.NewRouter()
	r.Route("/v1", h.RegisterRoutes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

// =============================================================================
// Tests
// =============================================================================

func TestPricingHandler_ListPlans(t *testing.T) {
	w := do(t, newTestPricingRouter(&mockPricingService{}), http.MethodGet, "/v1/plans", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []map[string]any  `json:"data"`
		Meta core.ResponseMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "starter", body.Data[0]["tier"])
	assert.Equal(t, "35.00 EUR", body.Data[0]["monthly_price_display"])
	assert.Equal(t, "test-v1", body.Meta.CatalogVersion)
}

func TestPricingHandler_GetPlan(t *testing.T) {
	svc := &mockPricingService{
		getPlanFn: func(tier types.PlanTier) (types.Plan, error) {
			if tier == types.TierBusiness {
				return types.Plan{ID: "plan_business", Tier: tier, MonthlyPrice: decimal.NewFromInt(129)}, nil
			}
			return types.Plan{}, types.NewUnknownTierError(tier)
		},
	}
	router := newTestPricingRouter(svc)

	w := do(t, router, http.MethodGet, "/v1/plans/business", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"monthly_price_display":"129.00 EUR"`)

	w = do(t, router, http.MethodGet, "/v1/plans/gold", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(types.ErrCodeNotFoundTier), errorCode(t, w))
}

func TestPricingHandler_GetPlanAddOns(t *testing.T) {
	svc := &mockPricingService{
		availableFn: func(types.PlanTier) ([]types.AddOn, error) {
			return []types.AddOn{{ID: "white_label"}}, nil
		},
		includedFn: func(types.PlanTier) ([]types.AddOn, error) {
			return []types.AddOn{{ID: "advanced_reports"}, {ID: "api_access"}}, nil
		},
	}

	w := do(t, newTestPricingRouter(svc), http.MethodGet, "/v1/plans/enterprise/add-ons", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data PlanAddOnsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, types.TierEnterprise, body.Data.Tier)
	assert.Len(t, body.Data.Available, 1)
	assert.Len(t, body.Data.Included, 2)
}

func TestPricingHandler_GetPlanAddOns_UnknownTier(t *testing.T) {
	svc := &mockPricingService{
		availableFn: func(tier types.PlanTier) ([]types.AddOn, error) {
			return nil, types.NewUnknownTierError(tier)
		},
	}

	w := do(t, newTestPricingRouter(svc), http.MethodGet, "/v1/plans/gold/add-ons", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPricingHandler_ListAddOns(t *testing.T) {
	var gotCategory types.AddOnCategory
	svc := &mockPricingService{
		byCategoryFn: func(c types.AddOnCategory) ([]types.AddOn, error) {
			gotCategory = c
			if !c.Valid() {
				return nil, types.NewAppError(types.ErrCodeValidationInvalidCategory, "bad category", nil)
			}
			return []types.AddOn{{ID: "api_access"}}, nil
		},
	}
	router := newTestPricingRouter(svc)

	w := do(t, router, http.MethodGet, "/v1/add-ons", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "white_label")

	w = do(t, router, http.MethodGet, "/v1/add-ons?category=premium", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.CategoryPremium, gotCategory)

	w = do(t, router, http.MethodGet, "/v1/add-ons?category=misc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidCategory), errorCode(t, w))
}

func TestPricingHandler_CreateQuote(t *testing.T) {
	svc := &mockPricingService{}
	body := `{"tier":"professional","interval":"monthly","add_on_ids":["advanced_reports"],"coupon_code":"LAUNCH50","periods":3,"subscriber_id":"sub-1"}`

	w := do(t, newTestPricingRouter(svc), http.MethodPost, "/v1/quotes", body)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.capturedQuote)
	assert.Equal(t, billing.QuoteRequest{
		Tier:         types.TierProfessional,
		Interval:     types.IntervalMonthly,
		AddOnIDs:     []string{"advanced_reports"},
		CouponCode:   "LAUNCH50",
		Periods:      3,
		SubscriberID: "sub-1",
	}, *svc.capturedQuote)
	assert.Contains(t, w.Body.String(), `"total_display":"35.00 EUR"`)
	assert.Contains(t, w.Body.String(), `"catalog_version":"test-v1"`)
}

func TestPricingHandler_CreateQuote_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		quoteErr error
		status   int
		code     types.ErrorCode
	}{
		{"malformed json", `{"tier":`, nil, http.StatusBadRequest, types.ErrCodeValidationInvalidJSON},
		{"unknown field", `{"tier":"starter","interval":"monthly","plan":"x"}`, nil, http.StatusBadRequest, types.ErrCodeValidationInvalidJSON},
		{"missing interval", `{"tier":"starter"}`, nil, http.StatusBadRequest, types.ErrCodeValidationFailed},
		{"negative periods", `{"tier":"starter","interval":"monthly","periods":-2}`, nil, http.StatusBadRequest, types.ErrCodeValidationFailed},
		{"add-on not offered", `{"tier":"starter","interval":"monthly","add_on_ids":["api_access"]}`,
			types.NewAddOnNotOfferedError("api_access", types.TierStarter), http.StatusBadRequest, types.ErrCodeValidationAddOnNotOffered},
		{"storage failure", `{"tier":"starter","interval":"monthly","coupon_code":"X"}`,
			errors.New("db down"), http.StatusInternalServerError, types.ErrCodeInternalUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPricingService{
				quoteFn: func(context.Context, billing.QuoteRequest) (*types.Quote, error) {
					return nil, tt.quoteErr
				},
			}

			w := do(t, newTestPricingRouter(svc), http.MethodPost, "/v1/quotes", tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, string(tt.code), errorCode(t, w))
		})
	}
}

func TestPricingHandler_ApplyCoupon(t *testing.T) {
	var gotPrice decimal.Decimal
	var gotCode string
	var gotPeriods int
	svc := &mockPricingService{
		applyFn: func(price decimal.Decimal, code string, periods int) types.CouponResult {
			gotPrice, gotCode, gotPeriods = price, code, periods
			return types.CouponResult{
				FinalPrice:       decimal.RequireFromString("29.5"),
				DiscountApplied:  decimal.RequireFromString("29.5"),
				EffectivePeriods: 1,
				Applied:          true,
			}
		},
	}

	w := do(t, newTestPricingRouter(svc), http.MethodPost, "/v1/coupons/apply", `{"price":"59","code":"LAUNCH50","periods":12}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decimal.NewFromInt(59).Equal(gotPrice))
	assert.Equal(t, "LAUNCH50", gotCode)
	assert.Equal(t, 12, gotPeriods)
	assert.Contains(t, w.Body.String(), `"applied":true`)
	assert.Contains(t, w.Body.String(), `"final_price_display":"29.50 EUR"`)
}

func TestPricingHandler_ApplyCoupon_DefaultsToOnePeriod(t *testing.T) {
	gotPeriods := -1
	svc := &mockPricingService{
		applyFn: func(price decimal.Decimal, code string, periods int) types.CouponResult {
			gotPeriods = periods
			return types.CouponResult{FinalPrice: price, DiscountApplied: decimal.Zero}
		},
	}

	w := do(t, newTestPricingRouter(svc), http.MethodPost, "/v1/coupons/apply", `{"price":"59","code":"LAUNCH50"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gotPeriods)
}

func TestPricingHandler_ApplyCoupon_Errors(t *testing.T) {
	router := newTestPricingRouter(&mockPricingService{})

	w := do(t, router, http.MethodPost, "/v1/coupons/apply", `{"price":"-1","code":"LAUNCH50"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidPrice), errorCode(t, w))

	w = do(t, router, http.MethodPost, "/v1/coupons/apply", `{"price":"10"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(types.ErrCodeValidationFailed), errorCode(t, w))

	w = do(t, router, http.MethodPost, "/v1/coupons/apply", `{"price":"ten","code":"X"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidJSON), errorCode(t, w))
}

func TestPricingHandler_CreateRedemption(t *testing.T) {
	svc := &mockPricingService{}

	w := do(t, newTestPricingRouter(svc), http.MethodPost, "/v1/coupons/LAUNCH50/redemptions",
		`{"subscriber_id":"sub-1","tier":"professional","quote_id":"q-1"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.capturedRedeem)
	assert.Equal(t, billing.RedeemRequest{
		Code:         "LAUNCH50",
		SubscriberID: "sub-1",
		Tier:         types.TierProfessional,
		QuoteID:      "q-1",
	}, *svc.capturedRedeem)
}

func TestPricingHandler_CreateRedemption_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		redeemErr error
		status    int
	}{
		{"missing subscriber", `{}`, nil, http.StatusBadRequest},
		{"unknown tier", `{"subscriber_id":"s","tier":"gold"}`, nil, http.StatusBadRequest},
		{"exhausted", `{"subscriber_id":"s"}`, types.NewAppError(types.ErrCodeConflictCouponExhausted, "exhausted", nil), http.StatusConflict},
		{"inactive campaign", `{"subscriber_id":"s"}`, types.NewAppError(types.ErrCodeNotFoundCampaign, "none", nil), http.StatusNotFound},
		{"database", `{"subscriber_id":"s"}`, types.NewAppError(types.ErrCodeInternalDB, "db", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPricingService{
				redeemFn: func(context.Context, billing.RedeemRequest) (*types.Redemption, error) {
					return nil, tt.redeemErr
				},
			}

			w := do(t, newTestPricingRouter(svc), http.MethodPost, "/v1/coupons/LAUNCH50/redemptions", tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
