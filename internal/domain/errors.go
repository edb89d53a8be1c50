package domain

import "errors"

var (
	ErrNotFound               = errors.New("resource not found")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	ErrInvalidRequest         = errors.New("invalid request")
)
