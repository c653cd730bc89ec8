package task

import "errors"

// Sentinel errors for task operations.
var (
	// ErrTaskNotFound is returned when the referenced task id does not exist.
	ErrTaskNotFound = errors.New("task not found")
)

// Reply error codes carried across the service boundary.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeInternal   = "internal_error"
)
