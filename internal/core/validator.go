package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"estatehub/internal/types"
)

// Validator wraps go-playground/validator with the pricing domain tags:
//
//	plan_tier        - a known types.PlanTier
//	billing_interval - a known types.BillingInterval
//	addon_category   - a known types.AddOnCategory
//
// Field names in errors use the json tag, so they match the request body.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// FieldError describes one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// NewValidator creates a Validator and registers the custom tags.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "plan_tier", func(fl validator.FieldLevel) bool {
		return types.PlanTier(fl.Field().String()).Valid()
	})
	mustRegister(v, "billing_interval", func(fl validator.FieldLevel) bool {
		return types.BillingInterval(fl.Field().String()).Valid()
	})
	mustRegister(v, "addon_category", func(fl validator.FieldLevel) bool {
		return types.AddOnCategory(fl.Field().String()).Valid()
	})

	return &Validator{validate: v, logger: logger}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("registering validation %q: %v", tag, err))
	}
}

// ValidateStruct checks s against its validate tags. A violation is returned
// as a validation_failed AppError listing every failed field.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError means a programming error at the call site.
		v.logger.Error("struct validation misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		names = append(names, fe.Field())
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationFailed,
		"invalid request: "+strings.Join(names, ", "),
		err,
		map[string]any{"fields": fields},
	)
}
