// Package validation checks request DTOs with go-playground/validator and
// reports failures as domain validation errors.
package validation

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "bundlehub/internal/errors"
	"bundlehub/internal/models"

	"github.com/go-playground/validator/v10"
)

var msisdnRegex = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

// ErrCodeInvalidRequest is the code of every error returned by Struct.
const ErrCodeInvalidRequest = "INVALID_REQUEST"

type Validator struct {
	validate *validator.Validate
}

// New returns a validator with the custom tags msisdn, bundletype and password.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
		return msisdnRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bundletype", func(fl validator.FieldLevel) bool {
		return models.BundleType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s and returns nil or a *errors.DomainError of kind validation.
func (v *Validator) Struct(ctx context.Context, s interface{}) error {
	err := v.validate.StructCtx(ctx, s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !apperrors.As(err, &fieldErrs) {
		return apperrors.Validation(ErrCodeInvalidRequest, err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fe.Field(), describe(fe)))
	}
	return apperrors.Validation(ErrCodeInvalidRequest, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "msisdn":
		return "must be a valid phone number"
	case "bundletype":
		return "must be a known bundle type"
	case "password":
		return fmt.Sprintf("must be %d to %d characters with upper and lower case letters and a number",
			MinPasswordLength, MaxPasswordLength)
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
