package visitors

import "errors"

var (
	// ErrMissingName is returned when the name is absent
	ErrMissingName = errors.New("name is required")

	// ErrMissingEmail is returned when the email is absent
	ErrMissingEmail = errors.New("email is required")

	// ErrInvalidEmail is returned when the email fails the syntactic check
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidRole is returned for an unknown role value
	ErrInvalidRole = errors.New("invalid visitor role")

	// ErrVisitorNotFound is returned when a visitor lookup misses
	ErrVisitorNotFound = errors.New("visitor not found")
)
