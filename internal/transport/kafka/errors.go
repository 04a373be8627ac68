package kafka

import (
	"errors"

	"shopflow-tracking/internal/apperr"
)

// PermanentError marks a message that redelivery cannot fix, such as a
// payload that does not decode.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError.
func Permanent(err error) error {
	return PermanentError{Err: err}
}

func isMalformed(err error) bool {
	var pe PermanentError
	return errors.As(err, &pe)
}

// isPermanent reports whether the message should be skipped instead of retried.
// Unknown orders and out-of-range coordinates never succeed on retry.
func isPermanent(err error) bool {
	return isMalformed(err) ||
		errors.Is(err, apperr.ErrNotFound) ||
		errors.Is(err, apperr.ErrInvalid)
}
