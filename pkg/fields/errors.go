package fields

import (
	"errors"
	"fmt"
)

// ErrImmutable is wrapped by every rejected mutation of an immutable
// field. Test with errors.Is.
var ErrImmutable = errors.New("field is immutable")

// ValidationError reports a value rejected by a typed accessor before
// any network traffic. Retrying the same set will fail identically.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("fields: invalid value for %q: %s", e.Field, e.Reason)
}

// ImmutableError reports a mutation attempt on a server-assigned field.
type ImmutableError struct {
	Field string
}

func (e *ImmutableError) Error() string {
	return fmt.Sprintf("fields: %q: %v", e.Field, ErrImmutable)
}

func (e *ImmutableError) Unwrap() error { return ErrImmutable }
