package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrDuplicate             = errors.New("already registered")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
