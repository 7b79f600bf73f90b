package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAuthorNotFound     = errors.New("author for post not found")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("wrong username or password")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
