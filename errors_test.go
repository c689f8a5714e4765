package persona_test

import (
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-persona"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	verr := persona.NewValidationError(
		persona.FieldError{Field: "password", Validation: persona.ValidationRequired, Message: "required validation failed on password"},
		persona.FieldError{Field: "email", Validation: persona.ValidationEmail, Message: "email validation failed on email"},
		persona.FieldError{Field: "email", Validation: persona.ValidationUnique, Message: "taken"},
	)

	assert.ErrorIs(t, verr, persona.ErrValidationFailed)
	assert.True(t, verr.Has("email", persona.ValidationUnique))
	assert.False(t, verr.Has("password", persona.ValidationUnique))
	assert.Equal(t, map[string][]string{
		"password": {"required validation failed on password"},
		"email":    {"email validation failed on email", "taken"},
	}, verr.ToMap())
	assert.Contains(t, verr.Error(), "password: required validation failed on password")

	wrapped := fmt.Errorf("register: %w", verr)
	got, ok := persona.AsValidationError(wrapped)
	require.True(t, ok)
	assert.Same(t, verr, got)
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		invalidToken  bool
		notFound      bool
		validationErr bool
	}{
		{name: "nil", err: nil},
		{name: "invalid token", err: persona.ErrInvalidToken, invalidToken: true},
		{name: "wrapped invalid token", err: fmt.Errorf("verify: %w", persona.ErrInvalidToken), invalidToken: true},
		{name: "record not found", err: persona.ErrRecordNotFound, notFound: true},
		{
			name:     "store not found",
			err:      goerrors.New("missing", goerrors.CategoryNotFound),
			notFound: true,
		},
		{name: "validation", err: persona.NewValidationError(), validationErr: true},
		{name: "other", err: assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.invalidToken, persona.IsInvalidToken(tt.err))
			assert.Equal(t, tt.notFound, persona.IsRecordNotFound(tt.err))
			_, ok := persona.AsValidationError(tt.err)
			assert.Equal(t, tt.validationErr, ok)
		})
	}
}

func TestSentinelTextCodes(t *testing.T) {
	assert.Equal(t, persona.TextCodeInvalidToken, persona.ErrInvalidToken.TextCode)
	assert.Equal(t, persona.TextCodeOperationNotAllowed, persona.ErrOperationNotAllowed.TextCode)
	assert.Equal(t, goerrors.CategoryValidation, persona.ErrValidationFailed.Category)
}
