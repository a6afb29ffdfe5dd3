package interfaces

import "errors"

// Common errors shared across component boundaries.
var (
	ErrEventNotFound = errors.New("event not found")
	ErrUnauthorized  = errors.New("unauthorized access")
)
