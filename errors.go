package persona

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidationFailed    = "VALIDATION_FAILED"
	TextCodeInvalidToken        = "INVALID_TOKEN"
	TextCodeOperationNotAllowed = "OPERATION_NOT_ALLOWED"
	TextCodeRecordNotFound      = "RECORD_NOT_FOUND"
	TextCodeInvalidAttribute    = "INVALID_ATTRIBUTE"
	TextCodeInvalidConfig       = "INVALID_CONFIG"
	TextCodeEmptyPassword       = "EMPTY_PASSWORD"
)

// ErrValidationFailed is the sentinel every ValidationError unwraps to
var ErrValidationFailed = goerrors.New("validation failed", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidationFailed).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidToken is returned when a token does not match a live record
// of the expected type
var ErrInvalidToken = goerrors.New("the token is invalid or expired", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeBadRequest)

// ErrOperationNotAllowed is returned when an operation is used outside
// its contract, e.g. changing the password through UpdateProfile
var ErrOperationNotAllowed = goerrors.New("password changes are not allowed via UpdateProfile, use UpdatePassword instead", goerrors.CategoryOperation).
	WithTextCode(TextCodeOperationNotAllowed)

// ErrRecordNotFound is returned by repositories when nothing matched
var ErrRecordNotFound = goerrors.New("record not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeRecordNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password can not be an empty string", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// Validation kinds produced by the lifecycle operations
const (
	ValidationRequired  = "required"
	ValidationEmail     = "email"
	ValidationUnique    = "unique"
	ValidationConfirmed = "confirmed"
	ValidationExists    = "exists"
	ValidationMisMatch  = "mis_match"
)

// FieldError is a single failed validation on a field
type FieldError struct {
	Field      string `json:"field"`
	Validation string `json:"validation"`
	Message    string `json:"message"`
}

// ValidationError carries the ordered list of field errors
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// NewValidationError creates a validation error from the given field errors
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidationFailed.Message
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidationFailed.Message + ": " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrValidationFailed) match
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Has reports whether the error holds the field/validation pair
func (e *ValidationError) Has(field, validation string) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == field && f.Validation == validation {
			return true
		}
	}
	return false
}

// ToMap groups messages by field, preserving order inside each field
func (e *ValidationError) ToMap() map[string][]string {
	out := map[string][]string{}
	if e == nil {
		return out
	}
	for _, f := range e.Fields {
		out[f.Field] = append(out[f.Field], f.Message)
	}
	return out
}

// AsValidationError extracts a ValidationError from err
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if goerrors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// IsInvalidToken reports whether err is, or wraps, ErrInvalidToken
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

// IsRecordNotFound reports whether err is, or wraps, ErrRecordNotFound
func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || goerrors.IsNotFound(err)
}
