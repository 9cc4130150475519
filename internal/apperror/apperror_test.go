package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"NotFound wraps ErrNotFound", NotFound("user", "u1"), ErrNotFound, true},
		{"ValidationFailed wraps ErrValidation", ValidationFailed("email", "required"), ErrValidation, true},
		{"Conflict wraps ErrConflict", Conflict("already linked"), ErrConflict, true},
		{"Forbidden wraps ErrForbidden", Forbidden("nope"), ErrForbidden, true},
		{"Unauthorized wraps ErrUnauthorized", Unauthorized("sign in"), ErrUnauthorized, true},
		{"NotFound does NOT match ErrConflict", NotFound("user", "u1"), ErrConflict, false},
		{"Conflict does NOT match ErrNotFound", Conflict("already linked"), ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

// Services wrap repository errors in fmt.Errorf("...: %w", err); the HTTP
// layer must still classify them through the extra layer.
func TestErrorsIsThroughWrapping(t *testing.T) {
	inner := Conflict("that account is already linked to another user")
	wrapped := fmt.Errorf("service/identity: linking account: %w", inner)

	if !errors.Is(wrapped, ErrConflict) {
		t.Error("wrapped conflict should still match ErrConflict")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should find the *AppError")
	}
	if appErr.Message != "that account is already linked to another user" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestValidationFailedCarriesField(t *testing.T) {
	err := ValidationFailed("graduationYear", "not plausible")
	if err.Field != "graduationYear" {
		t.Errorf("Field = %q, want graduationYear", err.Field)
	}
}
