// Package validator provides pure predicates that constrain a field value.
// This package has NO dependencies on I/O or external packages.
package validator

// Type identifies the kind of a validator.
type Type string

const (
	TypeTextLength    Type = "text_length"
	TypeTextContains  Type = "text_contains"
	TypeEmail         Type = "email"
	TypeArrayContains Type = "array_contains"
	TypeArraySize     Type = "array_size"
)

// IsValid returns true if the type is a known validator type.
func (t Type) IsValid() bool {
	switch t {
	case TypeTextLength, TypeTextContains, TypeEmail, TypeArrayContains, TypeArraySize:
		return true
	}
	return false
}

// Validator is a pure predicate over a value of type T.
// Implementations are immutable after construction.
type Validator[T any] interface {
	Type() Type
	IsValid(value T) bool
}

// Bound returns a pointer to n, for use as an optional length bound.
func Bound(n int) *int {
	return &n
}

// withinBounds reports whether n satisfies the optional min and max bounds.
func withinBounds(n int, min, max *int) bool {
	if min != nil && n < *min {
		return false
	}
	if max != nil && n > *max {
		return false
	}
	return true
}

func copyBound(b *int) *int {
	if b == nil {
		return nil
	}
	return Bound(*b)
}
