package validation_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/psychotest/psychotest/internal/api/validation"
)

func assertFieldError(t *testing.T, errs []validation.FieldError, field, contains string) {
	t.Helper()
	for _, e := range errs {
		if e.Field == field {
			assert.Contains(t, e.Message, contains)
			return
		}
	}
	t.Errorf("expected field error on %q containing %q, got none", field, contains)
}

func ptr[T any](v T) *T { return &v }

// --- ValidateRegisterRequest ---

func validRegisterRequest() validation.RegisterRequest {
	return validation.RegisterRequest{
		Email:    "ann@example.com",
		Password: "correct-horse",
		Name:     "Ann",
		Role:     "client",
	}
}

func TestRegister_Valid(t *testing.T) {
	t.Parallel()
	assert.Empty(t, validation.ValidateRegisterRequest(validRegisterRequest()))
}

func TestRegister_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		mutate   func(*validation.RegisterRequest)
		field    string
		contains string
	}{
		{"email missing", func(r *validation.RegisterRequest) { r.Email = " " }, "email", "required"},
		{"email malformed", func(r *validation.RegisterRequest) { r.Email = "not-an-email" }, "email", "valid address"},
		{"email with display name", func(r *validation.RegisterRequest) { r.Email = "Ann <ann@x.com>" }, "email", "valid address"},
		{"password short", func(r *validation.RegisterRequest) { r.Password = "short" }, "password", "at least 8"},
		{"password long", func(r *validation.RegisterRequest) { r.Password = strings.Repeat("p", 73) }, "password", "at most 72"},
		{"name missing", func(r *validation.RegisterRequest) { r.Name = "" }, "name", "required"},
		{"admin role", func(r *validation.RegisterRequest) { r.Role = "admin" }, "role", `"client", "therapist"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := validRegisterRequest()
			tt.mutate(&req)
			assertFieldError(t, validation.ValidateRegisterRequest(req), tt.field, tt.contains)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	assert.Empty(t, validation.ValidateLoginRequest(validation.LoginRequest{Email: "a@x.com", Password: "x"}))
	assert.Len(t, validation.ValidateLoginRequest(validation.LoginRequest{}), 2)
}

// --- Tests catalog ---

func TestCreateTest(t *testing.T) {
	t.Parallel()
	valid := validation.CreateTestRequest{Title: "PHQ-9", Description: "Depression screen", DurationMinutes: 10}
	assert.Empty(t, validation.ValidateCreateTestRequest(valid))

	noTitle := valid
	noTitle.Title = ""
	assertFieldError(t, validation.ValidateCreateTestRequest(noTitle), "title", "required")

	longDesc := valid
	longDesc.Description = strings.Repeat("d", 1001)
	assertFieldError(t, validation.ValidateCreateTestRequest(longDesc), "description", "1000")

	for _, d := range []int{0, -5, 601} {
		bad := valid
		bad.DurationMinutes = d
		assertFieldError(t, validation.ValidateCreateTestRequest(bad), "durationMinutes", "between 1 and 600")
	}
}

func TestUpdateTest_OnlyNonNilFields(t *testing.T) {
	t.Parallel()
	assert.Empty(t, validation.ValidateUpdateTestRequest(validation.UpdateTestRequest{}))
	assert.Empty(t, validation.ValidateUpdateTestRequest(validation.UpdateTestRequest{IsActive: ptr(false)}))

	errs := validation.ValidateUpdateTestRequest(validation.UpdateTestRequest{
		Title:           ptr("  "),
		DurationMinutes: ptr(0),
	})
	assertFieldError(t, errs, "title", "must not be empty")
	assertFieldError(t, errs, "durationMinutes", "between")
}

// --- Assignments ---

func TestAssignTest(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	valid := validation.AssignTestRequest{
		ClientID: "9b2f7c0e-8a59-4bd4-9a0a-3f0f5d3c2e11",
		TestID:   "0f8d2b7a-54c1-4f27-8d0e-2c8c4b1d9e02",
	}
	assert.Empty(t, validation.ValidateAssignTestRequest(valid, now))

	today := valid
	today.DueDate = ptr("2026-03-10")
	assert.Empty(t, validation.ValidateAssignTestRequest(today, now))

	past := valid
	past.DueDate = ptr("2026-03-09")
	assertFieldError(t, validation.ValidateAssignTestRequest(past, now), "dueDate", "past")

	badDate := valid
	badDate.DueDate = ptr("03/20/2026")
	assertFieldError(t, validation.ValidateAssignTestRequest(badDate, now), "dueDate", "YYYY-MM-DD")

	badIDs := validation.AssignTestRequest{ClientID: "nope"}
	errs := validation.ValidateAssignTestRequest(badIDs, now)
	assertFieldError(t, errs, "clientId", "valid UUID")
	assertFieldError(t, errs, "testId", "required")
}

func TestAddClient(t *testing.T) {
	t.Parallel()
	assert.Empty(t, validation.ValidateAddClientRequest(validation.AddClientRequest{Email: "c@x.com"}))
	assertFieldError(t, validation.ValidateAddClientRequest(validation.AddClientRequest{Email: "c@x.com", Notes: ptr(strings.Repeat("n", 2001))}), "notes", "2000")
}

func TestStatus(t *testing.T) {
	t.Parallel()
	assert.Empty(t, validation.ValidateStatus("completed"))
	assertFieldError(t, validation.ValidateStatus("archived"), "status", `"assigned", "completed", "expired"`)
	assertFieldError(t, validation.ValidateStatus(""), "status", "required")
}
