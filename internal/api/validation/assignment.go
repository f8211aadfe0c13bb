package validation

import (
	"time"

	"github.com/google/uuid"
)

var assignmentStatuses = map[string]bool{"assigned": true, "completed": true, "expired": true}

// AddClientRequest mirrors the fields needed to put a client on a roster.
type AddClientRequest struct {
	Email string
	Notes *string
}

// ValidateAddClientRequest validates the fields of an add client request.
func ValidateAddClientRequest(req AddClientRequest) []FieldError {
	var errs []FieldError
	errs = email(errs, req.Email)
	if req.Notes != nil && len(*req.Notes) > 2000 {
		errs = append(errs, FieldError{Field: "notes", Message: "notes must be at most 2000 characters"})
	}
	return errs
}

// AssignTestRequest mirrors the fields needed for assign test validation.
type AssignTestRequest struct {
	ClientID string
	TestID   string
	DueDate  *string
}

// ValidateAssignTestRequest validates the fields of an assign test request.
// now is the reference for rejecting due dates in the past.
func ValidateAssignTestRequest(req AssignTestRequest, now time.Time) []FieldError {
	var errs []FieldError

	errs = uuidField(errs, "clientId", req.ClientID)
	errs = uuidField(errs, "testId", req.TestID)

	if req.DueDate != nil {
		due, err := time.Parse(time.DateOnly, *req.DueDate)
		if err != nil {
			errs = append(errs, FieldError{Field: "dueDate", Message: "dueDate must be a date in YYYY-MM-DD format"})
		} else if due.Before(truncateDay(now)) {
			errs = append(errs, FieldError{Field: "dueDate", Message: "dueDate must not be in the past"})
		}
	}

	return errs
}

// ValidateStatus validates an assignment status value.
func ValidateStatus(status string) []FieldError {
	return oneOf(nil, "status", status, assignmentStatuses)
}

func uuidField(errs []FieldError, field, value string) []FieldError {
	if value == "" {
		return append(errs, FieldError{Field: field, Message: field + " is required"})
	}
	if _, err := uuid.Parse(value); err != nil {
		return append(errs, FieldError{Field: field, Message: field + " must be a valid UUID"})
	}
	return errs
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
