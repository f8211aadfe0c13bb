package validation

import (
	"fmt"
	"sort"
	"strings"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func required(errs []FieldError, field, value string, maxLen int) []FieldError {
	v := strings.TrimSpace(value)
	if v == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	if len(v) > maxLen {
		return append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, maxLen)})
	}
	return errs
}

func oneOf(errs []FieldError, field, value string, allowed map[string]bool) []FieldError {
	if value == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	if !allowed[value] {
		return append(errs, FieldError{Field: field, Message: fmt.Sprintf("%s must be one of: %s", field, joinKeys(allowed))})
	}
	return errs
}

func joinKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, fmt.Sprintf("%q", k))
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
