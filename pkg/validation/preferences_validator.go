package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/zedarvates/storycore-grid/internal/errors"
	"github.com/zedarvates/storycore-grid/pkg/models"
)

// structValidate is shared; validator.Validate caches struct metadata and is
// safe for concurrent use.
var structValidate *validator.Validate

func init() {
	structValidate = validator.New()
	_ = structValidate.RegisterValidation("gridformat", validateGridFormat)
}

func validateGridFormat(fl validator.FieldLevel) bool {
	return models.GridFormat(fl.Field().String()).IsValid()
}

// ValidatePreferences checks selection preferences before any scoring runs.
// Every violated rule is listed in the returned configuration error.
func ValidatePreferences(prefs models.FormatPreferences) error {
	if err := ValidateStruct(prefs); err != nil {
		return apperrors.NewConfigurationError("invalid format preferences: "+err.Error(), err)
	}
	return nil
}

// ValidateStruct runs the struct tag rules and flattens the result into one
// readable error
func ValidateStruct(v interface{}) error {
	err := structValidate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must contain at least %s entries", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", fe.Field(), fe.Param())
	case "gridformat":
		return fmt.Sprintf("%s has unsupported format %v (supported: %s)",
			fe.Namespace(), fe.Value(), strings.Join(models.FormatStrings(), ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
