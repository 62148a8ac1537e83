package podium_errors

import "errors"

// Common errors
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyReviewed = errors.New("application already reviewed")
	ErrInvalidInput    = errors.New("invalid input")
	ErrExternalService = errors.New("external service failure")
	ErrUnauthorized    = errors.New("unauthorized")
)
