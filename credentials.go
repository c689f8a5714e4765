package persona

import "context"

// credentialVerifier compares a candidate password with a stored hash and
// reports mismatches as field errors
type credentialVerifier struct {
	hasher    Hasher
	validator *Validator
}

// verify returns a *ValidationError tagged on field with the mis_match
// kind when candidate does not match hash. Hasher failures propagate.
func (c credentialVerifier) verify(_ context.Context, action, candidate, hash, field string) error {
	ok, err := c.hasher.Verify(candidate, hash)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	messages := c.validator.Messages(action)
	return NewValidationError(FieldError{
		Field:      field,
		Validation: ValidationMisMatch,
		Message:    resolveMessage(messages, field, ValidationMisMatch, nil),
	})
}
