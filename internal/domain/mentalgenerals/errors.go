package mentalgenerals

import "errors"

var (
	// ErrValidation marks a missing or malformed patient reference or an
	// input that does not match the record shape.
	ErrValidation = errors.New("validation error")

	// ErrDuplicateRecord marks a create for a patient that already has a record.
	ErrDuplicateRecord = errors.New("mental generals record already exists for patient")

	// ErrNotFound marks an operation that requires an existing record.
	ErrNotFound = errors.New("mental generals record not found")
)
