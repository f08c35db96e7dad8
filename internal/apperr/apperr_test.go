package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Message(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Validation("projectID"), `parameter "projectID" required`},
		{Validationf("mood", "must be between 1 and 5"), `parameter "mood" must be between 1 and 5`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestAsValidation_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("task: create: %w", Validation("name"))
	ve, ok := AsValidation(wrapped)
	if !ok {
		t.Fatalf("AsValidation(%v) = false", wrapped)
	}
	if ve.Field != "name" {
		t.Errorf("field = %q, want name", ve.Field)
	}

	if _, ok := AsValidation(errors.New("plain")); ok {
		t.Error("AsValidation matched a plain error")
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("project: %s: %w", "prj-abc12", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped ErrNotFound not matched by errors.Is")
	}
	err = fmt.Errorf("project: user on project: %w", ErrForbidden)
	if !errors.Is(err, ErrForbidden) {
		t.Error("wrapped ErrForbidden not matched by errors.Is")
	}
}
