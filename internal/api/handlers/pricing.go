// Package handlers contains the HTTP handlers of the pricing API. Handlers
// decode and validate requests, call the pricing service and render its
// results; they hold no pricing rules of their own.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"estatehub/internal/billing"
	"estatehub/internal/core"
	"estatehub/internal/types"
)

// PricingService is the subset of billing.Service the handlers use.
type PricingService interface {
	CatalogVersion() string
	GetPlan(tier types.PlanTier) (types.Plan, error)
	ListPlans() []types.Plan
	ListAddOns() []types.AddOn
	ListAddOnsByCategory(category types.AddOnCategory) ([]types.AddOn, error)
	AvailableAddOns(tier types.PlanTier) ([]types.AddOn, error)
	IncludedAddOns(tier types.PlanTier) ([]types.AddOn, error)
	ApplyCoupon(price decimal.Decimal, code string, periods int) types.CouponResult
	FormatMoney(amount decimal.Decimal) string
	Quote(ctx context.Context, req billing.QuoteRequest) (*types.Quote, error)
	Redeem(ctx context.Context, req billing.RedeemRequest) (*types.Redemption, error)
}

var _ PricingService = (*billing.Service)(nil)

// --- Request/Response Models ---

// PlanResponse is a plan with display-formatted prices.
type PlanResponse struct {
	types.Plan
	MonthlyPriceDisplay string `json:"monthly_price_display"`
	AnnualPriceDisplay  string `json:"annual_price_display"`
}

// PlanAddOnsResponse is the response for GET /v1/plans/{tier}/add-ons.
type PlanAddOnsResponse struct {
	Tier      types.PlanTier `json:"tier"`
	Available []types.AddOn  `json:"available"`
	Included  []types.AddOn  `json:"included"`
}

// QuoteResponse is a quote with its display-formatted totals.
type QuoteResponse struct {
	*types.Quote
	SubtotalDisplay string `json:"subtotal_display"`
	TotalDisplay    string `json:"total_display"`
}

// ApplyCouponRequest is the request body for POST /v1/coupons/apply.
type ApplyCouponRequest struct {
	Price decimal.Decimal `json:"price"`
	Code  string          `json:"code" validate:"required"`
	// Periods is the number of billing periods to discount; zero means one,
	// as for quotes.
	Periods int `json:"periods" validate:"min=0"`
}

// ApplyCouponResponse is the response for POST /v1/coupons/apply.
type ApplyCouponResponse struct {
	types.CouponResult
	FinalPriceDisplay string `json:"final_price_display"`
}

// RedemptionRequest is the request body for POST /v1/coupons/{code}/redemptions.
type RedemptionRequest struct {
	SubscriberID string         `json:"subscriber_id" validate:"required,max=128"`
	Tier         types.PlanTier `json:"tier,omitempty" validate:"omitempty,plan_tier"`
	QuoteID      string         `json:"quote_id,omitempty" validate:"max=128"`
}

// --- Pricing Handler ---

// PricingHandler serves the catalog, quote and coupon endpoints.
type PricingHandler struct {
	service   PricingService
	validator *core.Validator
	logger    *slog.Logger
}

// NewPricingHandler creates a PricingHandler.
func NewPricingHandler(svc PricingService, v *core.Validator, l *slog.Logger) *PricingHandler {
	if l == nil {
		l = slog.Default()
	}
	if v == nil {
		v = core.NewValidator(l)
	}
	return &PricingHandler{service: svc, validator: v, logger: l}
}

// RegisterRoutes mounts the pricing endpoints.
func (h *PricingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/plans", h.ListPlans)
	r.Get("/plans/{tier}", h.GetPlan)
	r.Get("/plans/{tier}/add-ons", h.GetPlanAddOns)
	r.Get("/add-ons", h.ListAddOns)
	r.Post("/quotes", h.CreateQuote)
	r.Post("/coupons/apply", h.ApplyCoupon)
	r.Post("/coupons/{code}/redemptions", h.CreateRedemption)
}

func (h *PricingHandler) meta() *core.ResponseMeta {
	return &core.ResponseMeta{CatalogVersion: h.service.CatalogVersion()}
}

func (h *PricingHandler) planResponse(p types.Plan) PlanResponse {
	return PlanResponse{
		Plan:                p,
		MonthlyPriceDisplay: h.service.FormatMoney(p.MonthlyPrice),
		AnnualPriceDisplay:  h.service.FormatMoney(p.AnnualPrice),
	}
}

// ListPlans handles GET /v1/plans. Plans are ordered cheapest first.
func (h *PricingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans := h.service.ListPlans()
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, h.planResponse(p))
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: out, Meta: h.meta()})
}

// GetPlan handles GET /v1/plans/{tier}.
func (h *PricingHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.GetPlan(types.PlanTier(chi.URLParam(r, "tier")))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.planResponse(plan), Meta: h.meta()})
}

// GetPlanAddOns handles GET /v1/plans/{tier}/add-ons.
func (h *PricingHandler) GetPlanAddOns(w http.ResponseWriter, r *http.Request) {
	tier := types.PlanTier(chi.URLParam(r, "tier"))

	available, err := h.service.AvailableAddOns(tier)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	included, err := h.service.IncludedAddOns(tier)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: PlanAddOnsResponse{Tier: tier, Available: available, Included: included},
		Meta: h.meta(),
	})
}

// ListAddOns handles GET /v1/add-ons with an optional ?category= filter.
func (h *PricingHandler) ListAddOns(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.service.ListAddOns(), Meta: h.meta()})
		return
	}

	addOns, err := h.service.ListAddOnsByCategory(types.AddOnCategory(category))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: addOns, Meta: h.meta()})
}

// CreateQuote handles POST /v1/quotes.
func (h *PricingHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req billing.QuoteRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	q, err := h.service.Quote(r.Context(), req)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: QuoteResponse{
			Quote:           q,
			SubtotalDisplay: h.service.FormatMoney(q.Subtotal),
			TotalDisplay:    h.service.FormatMoney(q.Total),
		},
		Meta: &core.ResponseMeta{CatalogVersion: q.CatalogVersion},
	})
}

// ApplyCoupon handles POST /v1/coupons/apply. An unknown or inactive code is
// not an error: the response carries the unchanged price with applied=false.
func (h *PricingHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}
	if req.Price.IsNegative() {
		core.Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidPrice,
			"price must not be negative", nil, map[string]any{"price": req.Price.String()}))
		return
	}

	periods := req.Periods
	if periods == 0 {
		periods = 1
	}

	res := h.service.ApplyCoupon(req.Price, req.Code, periods)
	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: ApplyCouponResponse{
			CouponResult:      res,
			FinalPriceDisplay: h.service.FormatMoney(res.FinalPrice),
		},
		Meta: h.meta(),
	})
}

// CreateRedemption handles POST /v1/coupons/{code}/redemptions.
func (h *PricingHandler) CreateRedemption(w http.ResponseWriter, r *http.Request) {
	var req RedemptionRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	red, err := h.service.Redeem(r.Context(), billing.RedeemRequest{
		Code:         chi.URLParam(r, "code"),
		SubscriberID: req.SubscriberID,
		Tier:         req.Tier,
		QuoteID:      req.QuoteID,
	})
	if err != nil {
		if types.IsCode(err, types.ErrCodeInternalDB) {
			h.logger.ErrorContext(r.Context(), "redemption failed", "error", err)
		}
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: red})
}
