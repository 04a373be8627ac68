package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrConflict indicates a state conflict, e.g. a transition out of a terminal status (HTTP 409).
var ErrConflict = errors.New("conflict")

// ErrNotFound indicates that the requested order does not exist.
var ErrNotFound = errors.New("not found")
