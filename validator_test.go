package persona_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-persona"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorStopsAtFirstFailurePerField(t *testing.T) {
	v := persona.NewValidator(func(context.Context, string, string, uuid.UUID) (bool, error) {
		return true, nil
	}, nil)

	rules := persona.DefaultConfig().RegistrationRules()

	err := v.Validate(context.Background(), persona.ActionRegister, persona.Payload{
		"email":    "not-an-email",
		"password": "secret",
	}, rules)
	verr := requireValidation(t, err)

	require.Len(t, verr.Fields, 2)
	assert.Equal(t, persona.FieldError{
		Field:      "password",
		Validation: persona.ValidationConfirmed,
		Message:    "confirmed validation failed on password",
	}, verr.Fields[0])
	assert.Equal(t, persona.ValidationEmail, verr.Fields[1].Validation)
}

func TestValidatorUniqueUsesExclusion(t *testing.T) {
	id := uuid.New()
	var gotField, gotValue string
	var gotExclude uuid.UUID

	v := persona.NewValidator(func(_ context.Context, field, value string, exclude uuid.UUID) (bool, error) {
		gotField, gotValue, gotExclude = field, value, exclude
		return false, nil
	}, nil)

	err := v.Validate(context.Background(), persona.ActionUpdateEmail,
		persona.Payload{"email": "pepe@example.com"},
		persona.DefaultConfig().UpdateEmailRules(&persona.Account{ID: id}))
	require.NoError(t, err)

	assert.Equal(t, "email", gotField)
	assert.Equal(t, "pepe@example.com", gotValue)
	assert.Equal(t, id, gotExclude)
}

func TestValidatorMessages(t *testing.T) {
	v := persona.NewValidator(func(context.Context, string, string, uuid.UUID) (bool, error) {
		return true, nil
	}, func(action string) map[string]string {
		if action != persona.ActionRegister {
			return nil
		}
		return map[string]string{
			"required":     "{{ field }} is needed",
			"email.unique": "{{ field }} already used in {{ argument.0 }}",
		}
	})

	err := v.Validate(context.Background(), persona.ActionRegister, persona.Payload{
		"email": "pepe@example.com",
	}, persona.DefaultConfig().RegistrationRules())
	verr := requireValidation(t, err)

	assert.Equal(t, map[string][]string{
		"password": {"password is needed"},
		"email":    {"email already used in users"},
	}, verr.ToMap())

	assert.Empty(t, v.Messages(persona.ActionVerify))
}

func TestValidatorPropagatesCheckerErrors(t *testing.T) {
	v := persona.NewValidator(func(context.Context, string, string, uuid.UUID) (bool, error) {
		return false, assert.AnError
	}, nil)

	err := v.Validate(context.Background(), persona.ActionRegister, persona.Payload{
		"email":                 "pepe@example.com",
		"password":              "secret",
		"password_confirmation": "secret",
	}, persona.DefaultConfig().RegistrationRules())
	require.ErrorIs(t, err, assert.AnError)

	_, ok := persona.AsValidationError(err)
	assert.False(t, ok)
}

func TestValidatorRejectsUnknownKinds(t *testing.T) {
	v := persona.NewValidator(nil, nil)

	err := v.Validate(context.Background(), persona.ActionRegister, persona.Payload{}, persona.Rules{
		{Field: "name", Constraints: []persona.Constraint{{Kind: "alpha"}}},
	})
	require.Error(t, err)

	err = v.Validate(context.Background(), persona.ActionRegister, persona.Payload{"email": "a@b.co"}, persona.Rules{
		{Field: "email", Constraints: []persona.Constraint{persona.Unique("users", "email", uuid.Nil)}},
	})
	require.Error(t, err, "unique needs a checker")
}
