package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrOutOfBounds    = errors.New("pipeline crop out of bounds")
	ErrEncodeFailed   = errors.New("pipeline encode failed")
	ErrExifCopyFailed = errors.New("pipeline exif copy failed")
	ErrInvalidParams  = errors.New("pipeline invalid crop parameters")
)

// Error tags a failed crop with the step kind that failed.
type Error struct {
	Kind error
	Err  error
}

func newError(kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}

	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

type ValidationError struct {
	errors map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{errors: make(map[string]string)}
}

func (err *ValidationError) Add(k, v string) {
	err.errors[k] = v
}

func (err *ValidationError) Empty() bool {
	return len(err.errors) == 0
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(err.errors))
}

func (err *ValidationError) Errors() map[string]string {
	return err.errors
}

func (err *ValidationError) Unwrap() error {
	return ErrInvalidParams
}
