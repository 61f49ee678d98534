package domain

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is returned for input that fails validation.
	ErrInvalid = errors.New("invalid input")

	// ErrForbidden is returned when the actor may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrDisabled is returned for users an admin has disabled.
	ErrDisabled = errors.New("account disabled")
)
