package records

import (
	"errors"
	"fmt"
)

// Validation error kinds. A *ValidationError matches its kind with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrType         = errors.New("type error")
	ErrValue        = errors.New("value error")
)

// ValidationError reports a bad page request before any fetch is made.
type ValidationError struct {
	Kind    error
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Message)
}

// Is reports whether target is the error's kind.
func (e *ValidationError) Is(target error) bool {
	return target == e.Kind
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalidInput(msg string) error {
	return &ValidationError{Kind: ErrInvalidInput, Message: msg}
}

func typeError(field, msg string) error {
	return &ValidationError{Kind: ErrType, Field: field, Message: msg}
}

func valueError(field, msg string) error {
	return &ValidationError{Kind: ErrValue, Field: field, Message: msg}
}
