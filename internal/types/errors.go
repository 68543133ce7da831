package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// All callers MUST use these constants instead of hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationMissingField     ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidInterval  ErrorCode = "validation_invalid_interval"
	ErrCodeValidationInvalidCategory  ErrorCode = "validation_invalid_category"
	ErrCodeValidationInvalidPeriods   ErrorCode = "validation_invalid_periods"
	ErrCodeValidationInvalidPrice     ErrorCode = "validation_invalid_price"
	ErrCodeValidationInvalidJSON      ErrorCode = "validation_invalid_json"
	ErrCodeValidationFailed           ErrorCode = "validation_failed"
	ErrCodeValidationAddOnNotOffered  ErrorCode = "validation_addon_not_offered"
	ErrCodeValidationCouponIneligible ErrorCode = "validation_coupon_ineligible"

	// Not Found (404)
	ErrCodeNotFoundTier     ErrorCode = "not_found_tier"
	ErrCodeNotFoundAddOn    ErrorCode = "not_found_addon"
	ErrCodeNotFoundCampaign ErrorCode = "not_found_campaign"
	ErrCodeNotFoundRoute    ErrorCode = "not_found_route"

	// Method Not Allowed (405)
	ErrCodeMethodNotAllowed ErrorCode = "method_not_allowed"

	// Conflict (409)
	ErrCodeConflictCouponExhausted ErrorCode = "conflict_coupon_exhausted"
	ErrCodeConflictCouponRedeemed  ErrorCode = "conflict_coupon_already_redeemed"

	// Internal/Upstream (500/502)
	ErrCodeCatalogIntegrity    ErrorCode = "internal_catalog_integrity"
	ErrCodeCatalogUnavailable  ErrorCode = "internal_catalog_unavailable"
	ErrCodeInternalDB          ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected  ErrorCode = "internal_unexpected_error"
	ErrCodeUpstreamStorage     ErrorCode = "upstream_storage_unavailable"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case c == ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. Engine failures are
// always surfaced as *AppError so API layers can render a specific message
// from the Code rather than parsing strings.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// IsCode reports whether err is (or wraps) an *AppError carrying code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Catalog entry kinds used in CatalogIntegrityError details.
const (
	EntryPlan     = "plan"
	EntryAddOn    = "add_on"
	EntryCampaign = "campaign"
)

// NewCatalogIntegrityError reports a catalog entry that failed validation.
// It is fatal at startup: a catalog producing this error must never serve.
func NewCatalogIntegrityError(kind, id, reason string) *AppError {
	return NewAppErrorWithDetails(
		ErrCodeCatalogIntegrity,
		fmt.Sprintf("%s %q: %s", kind, id, reason),
		nil,
		map[string]any{"kind": kind, "id": id, "reason": reason},
	)
}

// NewUnknownTierError reports a tier absent from the catalog.
func NewUnknownTierError(tier PlanTier) *AppError {
	return NewAppErrorWithDetails(
		ErrCodeNotFoundTier,
		fmt.Sprintf("unknown tier %q", tier),
		nil,
		map[string]any{"tier": string(tier)},
	)
}

// NewUnknownAddOnError reports an add-on id absent from the catalog.
func NewUnknownAddOnError(id string) *AppError {
	return NewAppErrorWithDetails(
		ErrCodeNotFoundAddOn,
		fmt.Sprintf("unknown add-on %q", id),
		nil,
		map[string]any{"add_on_id": id},
	)
}

// NewAddOnNotOfferedError reports an add-on that is neither purchasable for
// nor bundled in the given tier.
func NewAddOnNotOfferedError(id string, tier PlanTier) *AppError {
	return NewAppErrorWithDetails(
		ErrCodeValidationAddOnNotOffered,
		fmt.Sprintf("add-on %q not offered for tier %q", id, tier),
		nil,
		map[string]any{"add_on_id": id, "tier": string(tier)},
	)
}
