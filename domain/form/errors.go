package form

import "errors"

var (
	// ErrNotFound is returned when a referenced field, section or form does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateField is returned when a field id is already present in a section.
	ErrDuplicateField = errors.New("field already exists")

	// ErrDuplicateSection is returned when a section id is already present in a form.
	ErrDuplicateSection = errors.New("section already exists")

	// ErrTypeMismatch is returned when an update would change a field's type.
	ErrTypeMismatch = errors.New("field type cannot change")

	// ErrConflict is returned when a child field is already bound to another parent.
	ErrConflict = errors.New("dependency conflict")

	// ErrInvariantViolation indicates a corrupted dependency graph. It is a
	// programming error, not a user error.
	ErrInvariantViolation = errors.New("invariant violation")
)
