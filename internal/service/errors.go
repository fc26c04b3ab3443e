package service

import "errors"

// Sentinel errors shared across services. Handlers map these to HTTP status
// codes; anything else is treated as an internal failure.
var (
	// ErrValidation marks caller-correctable input problems.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateFiling is returned when a non-draft filing already exists
	// for the same (taxpayer, year, period, tax type) tuple.
	ErrDuplicateFiling = errors.New("tax filing already exists for this period")

	// ErrNotFound is returned when a referenced taxpayer, filing or payment
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a taxpayer references a record they do
	// not own.
	ErrForbidden = errors.New("access denied")

	// ErrInvalidCredentials is returned on failed login or token refresh.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
