// Package validator checks the structural and business-rule validity of
// workflow graphs before they are optimized, compiled, or executed.
package validator

import (
	"errors"
	"fmt"
)

// Category distinguishes structural violations (malformed graph) from business
// rule violations (well-formed graph breaking a domain constraint).
type Category string

const (
	CategoryStructural   Category = "structural"
	CategoryBusinessRule Category = "business_rule"
)

// ValidationError describes the first violated invariant found during a
// Validate call. Validation stops on the first violation; callers needing
// exhaustive reporting re-validate after fixing each issue.
type ValidationError struct {
	Category Category
	Code     string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed [%s]: %s", e.Category, e.Code, e.Message)
}

// Is matches any ValidationError of the same category, so callers can branch
// with errors.Is on category sentinels.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) {
		return false
	}

	return other.Code == "" && other.Category == e.Category
}

// Category sentinels for errors.Is checks.
var (
	ErrStructural   = &ValidationError{Category: CategoryStructural}
	ErrBusinessRule = &ValidationError{Category: CategoryBusinessRule}
)

func newStructural(code, format string, args ...any) *ValidationError {
	return &ValidationError{
		Category: CategoryStructural,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}
}

func newBusinessRule(code, format string, args ...any) *ValidationError {
	return &ValidationError{
		Category: CategoryBusinessRule,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IsValidationError reports whether err is a validation error of any category.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}
