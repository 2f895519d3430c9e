package loader

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidLocatorScheme = errors.New("loader invalid locator scheme")
	ErrStreamUnavailable    = errors.New("loader stream unavailable")
	ErrDecodeFailed         = errors.New("loader decode failed")
	ErrOutOfMemory          = errors.New("loader out of memory")
	ErrBoundsUnreadable     = errors.New("loader bounds unreadable")
)

// Error is a load failure of one locator. Both Kind and the cause are
// reachable through errors.Is.
type Error struct {
	Kind    error
	Locator string
	Err     error
}

func newError(kind error, locator string, cause error) *Error {
	return &Error{Kind: kind, Locator: locator, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v [%s]", e.Kind, e.Locator)
	}

	return fmt.Sprintf("%v [%s]: %v", e.Kind, e.Locator, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}
