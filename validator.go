package persona

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UniqueChecker reports whether a value is already taken by an account
// other than exclude.
type UniqueChecker func(ctx context.Context, field, value string, exclude uuid.UUID) (bool, error)

// Validator runs declared Rules against a payload using ozzo-validation.
// Every field is checked, each field stops at its first failure.
type Validator struct {
	unique   UniqueChecker
	messages MessageProvider
}

// NewValidator creates a validator. unique may be nil when the rules in use
// declare no unique constraint.
func NewValidator(unique UniqueChecker, messages MessageProvider) *Validator {
	return &Validator{unique: unique, messages: messages}
}

// Messages returns the custom messages for action, never nil
func (v *Validator) Messages(action string) map[string]string {
	if v == nil || v.messages == nil {
		return map[string]string{}
	}
	if m := v.messages(action); m != nil {
		return m
	}
	return map[string]string{}
}

// Validate checks payload against rules. It returns a *ValidationError
// listing the failed fields in rule order, or the collaborator error that
// prevented validation.
func (v *Validator) Validate(ctx context.Context, action string, payload Payload, rules Rules) error {
	messages := v.Messages(action)
	failed := []FieldError{}

	for _, fr := range rules {
		compiled, err := v.compile(fr, payload, messages)
		if err != nil {
			return err
		}

		value, _ := payload.String(fr.Field)
		err = validation.ValidateWithContext(ctx, value, compiled...)
		if err == nil {
			continue
		}

		var internal validation.InternalError
		if errors.As(err, &internal) && internal.InternalError() != nil {
			return internal.InternalError()
		}

		var verr validation.Error
		if !errors.As(err, &verr) {
			return err
		}

		failed = append(failed, FieldError{
			Field:      fr.Field,
			Validation: verr.Code(),
			Message:    verr.Message(),
		})
	}

	if len(failed) > 0 {
		return NewValidationError(failed...)
	}

	return nil
}

func (v *Validator) compile(fr FieldRules, payload Payload, messages map[string]string) ([]validation.Rule, error) {
	out := make([]validation.Rule, 0, len(fr.Constraints))

	for _, c := range fr.Constraints {
		msg := resolveMessage(messages, fr.Field, c.Kind, c.Args)
		verr := validation.NewError(c.Kind, msg)

		switch c.Kind {
		case ValidationRequired:
			out = append(out, validation.Required.ErrorObject(verr))
		case ValidationEmail:
			out = append(out, is.EmailFormat.ErrorObject(verr))
		case ValidationConfirmed:
			out = append(out, confirmedRule(payload, c, verr))
		case ValidationUnique:
			rule, err := v.uniqueRule(c, verr)
			if err != nil {
				return nil, err
			}
			out = append(out, rule)
		default:
			return nil, goerrors.New("unknown validation kind", goerrors.CategoryInternal).
				WithMetadata(map[string]any{"field": fr.Field, "validation": c.Kind})
		}
	}

	return out, nil
}

func confirmedRule(payload Payload, c Constraint, verr validation.Error) validation.Rule {
	confirmation := ""
	if len(c.Args) > 0 {
		confirmation = c.Args[0]
	}

	return validation.By(func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		other, _ := payload.String(confirmation)
		if s != other {
			return verr
		}
		return nil
	})
}

func (v *Validator) uniqueRule(c Constraint, verr validation.Error) (validation.Rule, error) {
	if v.unique == nil {
		return nil, goerrors.New("unique validation requires a checker", goerrors.CategoryInternal)
	}
	if len(c.Args) < 2 {
		return nil, goerrors.New("unique validation requires table and column", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"args": c.Args})
	}

	column := c.Args[1]
	exclude := uuid.Nil
	if len(c.Args) >= 4 {
		id, err := uuid.Parse(c.Args[3])
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "invalid unique exclusion id")
		}
		exclude = id
	}

	return validation.WithContext(func(ctx context.Context, value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		taken, err := v.unique(ctx, column, s, exclude)
		if err != nil {
			return validation.NewInternalError(err)
		}
		if taken {
			return verr
		}
		return nil
	}), nil
}
