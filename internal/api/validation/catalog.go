package validation

import (
	"fmt"
	"strings"
)

const (
	maxTestDuration = 600
	maxDescription  = 1000
)

// CreateTestRequest mirrors the fields needed for create test validation.
type CreateTestRequest struct {
	Title           string
	Description     string
	DurationMinutes int
}

// ValidateCreateTestRequest validates the fields of a create test request.
func ValidateCreateTestRequest(req CreateTestRequest) []FieldError {
	var errs []FieldError

	errs = required(errs, "title", req.Title, 255)
	if len(req.Description) > maxDescription {
		errs = append(errs, FieldError{Field: "description", Message: "description must be at most 1000 characters"})
	}
	errs = duration(errs, req.DurationMinutes)

	return errs
}

// UpdateTestRequest mirrors the fields needed for update test validation.
// Nil fields are not validated.
type UpdateTestRequest struct {
	Title           *string
	Description     *string
	DurationMinutes *int
	IsActive        *bool
}

// ValidateUpdateTestRequest validates only non-nil fields on an update request.
func ValidateUpdateTestRequest(req UpdateTestRequest) []FieldError {
	var errs []FieldError

	if req.Title != nil {
		if t := strings.TrimSpace(*req.Title); t == "" {
			errs = append(errs, FieldError{Field: "title", Message: "title must not be empty"})
		} else if len(t) > 255 {
			errs = append(errs, FieldError{Field: "title", Message: "title must be at most 255 characters"})
		}
	}
	if req.Description != nil && len(*req.Description) > maxDescription {
		errs = append(errs, FieldError{Field: "description", Message: "description must be at most 1000 characters"})
	}
	if req.DurationMinutes != nil {
		errs = duration(errs, *req.DurationMinutes)
	}

	return errs
}

func duration(errs []FieldError, minutes int) []FieldError {
	if minutes < 1 || minutes > maxTestDuration {
		return append(errs, FieldError{Field: "durationMinutes", Message: fmt.Sprintf("durationMinutes must be between 1 and %d", maxTestDuration)})
	}
	return errs
}
