package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPersistenceFailed = errors.New("persistence failed")
	ErrHierarchyCycle    = errors.New("hierarchy cycle")
	ErrInvalidConfig     = errors.New("invalid configuration")
)
