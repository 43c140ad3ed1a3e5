package errors

import "errors"

// Upstream errors.
var (
	ErrUpstreamUnavailable = errors.New("remote file host unavailable")
	ErrNotConfigured       = errors.New("integration not configured")
)

// Request errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)
