package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrExpired              = errors.New("expired")
	ErrAlreadyUsed          = errors.New("already used")
	ErrMismatch             = errors.New("code mismatch")
	ErrStorage              = errors.New("storage error")
	ErrTransportUnavailable = errors.New("transport unavailable")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
)
