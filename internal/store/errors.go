package store

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrTimeout     = errors.New("request timed out")
	ErrUnavailable = errors.New("storage unavailable")
)
