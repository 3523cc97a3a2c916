package types

import "errors"

// Error kinds surfaced by session operations. Callers match with errors.Is
// and map them to user messages; operations that return one of these leave
// prior state untouched.
var (
	// ErrDuplicateName indicates a create or rename collides with an
	// existing workset name.
	ErrDuplicateName = errors.New("workset name already exists")

	// ErrNotFound indicates an operation references a workset or slot
	// that no longer exists.
	ErrNotFound = errors.New("workset not found")

	// ErrValidation indicates an empty or malformed field, rejected
	// before any mutation.
	ErrValidation = errors.New("validation failed")
)
