package kv

import "errors"

// Common errors for store construction and use.
var (
	ErrInvalidConfig = errors.New("invalid storage configuration")
	ErrInvalidDriver = errors.New("invalid storage driver")
	ErrClosed        = errors.New("store is closed")
)
