package apperrors

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrInvalidConfig = errors.New("invalid config")
	ErrUpstream      = errors.New("upstream request failed")
	ErrTooLarge      = errors.New("table too large")
)
