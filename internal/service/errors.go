package service

import "errors"

// Error taxonomy of the order core. Callers match with errors.Is; the wrapped
// message carries the detail (for instance the valid sizes of a product).
var (
	ErrProductUnavailable = errors.New("product unavailable")
	ErrSizeUnavailable    = errors.New("size unavailable")
	ErrNotServiceable     = errors.New("address is not serviceable")
	ErrValidationFailed   = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
)
