package link

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record exists for a short id.
	ErrNotFound = errors.New("link not found")

	// ErrCodeExists is returned by stores on a short id uniqueness violation.
	ErrCodeExists = errors.New("short id already exists")
)

// ValidationError reports malformed creation input. It is surfaced to the
// caller immediately and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}
