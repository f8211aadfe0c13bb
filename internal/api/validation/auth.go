package validation

import (
	"net/mail"
	"strings"
)

var signUpRoles = map[string]bool{"client": true, "therapist": true}

// RegisterRequest mirrors the fields needed for registration validation.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// ValidateRegisterRequest validates the fields of a registration request.
func ValidateRegisterRequest(req RegisterRequest) []FieldError {
	var errs []FieldError

	errs = email(errs, req.Email)

	switch {
	case req.Password == "":
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	case len(req.Password) < 8:
		errs = append(errs, FieldError{Field: "password", Message: "password must be at least 8 characters"})
	case len(req.Password) > 72:
		errs = append(errs, FieldError{Field: "password", Message: "password must be at most 72 bytes"})
	}

	errs = required(errs, "name", req.Name, 255)
	errs = oneOf(errs, "role", req.Role, signUpRoles)

	return errs
}

// LoginRequest mirrors the fields needed for login validation.
type LoginRequest struct {
	Email    string
	Password string
}

// ValidateLoginRequest checks that both credentials are present.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(req.Email) == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

func email(errs []FieldError, value string) []FieldError {
	v := strings.TrimSpace(value)
	if v == "" {
		return append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || len(v) > 254 {
		return append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}
	return errs
}
