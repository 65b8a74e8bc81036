package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
	"github.com/sakif/devhelper/internal/apperror"
)

// Field limits, in characters unless noted. Struct tags can't reference
// constants, so the validate tags on snippetFields and credentials repeat
// these numbers; TestLimitsMatchStructTags keeps the two in step.
const (
	MaxUsernameLength = 64
	MaxTitleLength    = 200
	MaxLanguageLength = 50
	MaxContentBytes   = 100000
	MaxTags           = 20
	MaxTagLength      = 50
)

// newValidator returns the shared struct validator.
//
// validator.Validate caches struct metadata and is safe for concurrent use,
// so each service builds one and keeps it.
func newValidator() *validator.Validate {
	return validator.New()
}

// validationError turns the first failing rule into an AppError with a
// message fit to show the user as is.
func validationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}

	fe := errs[0]
	field := fe.Field()

	// dive errors are reported per element, e.g. "Tags[3]".
	if strings.HasPrefix(field, "Tags[") {
		return apperror.ValidationFailed("tags",
			fmt.Sprintf("Each tag must be %d characters or less", MaxTagLength))
	}

	switch fe.Tag() {
	case "required":
		return apperror.ValidationFailed(strings.ToLower(field), field+" is required")
	case "max":
		if field == "Tags" {
			return apperror.ValidationFailed("tags",
				fmt.Sprintf("A snippet can have at most %d tags", MaxTags))
		}
		return apperror.ValidationFailed(strings.ToLower(field),
			fmt.Sprintf("%s must be %s characters or less", field, fe.Param()))
	default:
		return apperror.ValidationFailed(strings.ToLower(field), field+" is invalid")
	}
}
