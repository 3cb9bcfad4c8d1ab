package validator

import "slices"

// ArrayContains checks that a value is one of an allowed set.
type ArrayContains[T comparable] struct {
	allowed []T
}

// NewArrayContains creates a set membership validator. The allowed
// values are copied.
func NewArrayContains[T comparable](allowed []T) ArrayContains[T] {
	return ArrayContains[T]{allowed: slices.Clone(allowed)}
}

// Type returns TypeArrayContains.
func (ArrayContains[T]) Type() Type { return TypeArrayContains }

// Allowed returns a copy of the allowed values.
func (v ArrayContains[T]) Allowed() []T { return slices.Clone(v.allowed) }

// IsValid returns true if value is in the allowed set.
func (v ArrayContains[T]) IsValid(value T) bool {
	return slices.Contains(v.allowed, value)
}

// ArraySize checks the min/max number of elements in a slice.
// A nil bound is not applied.
type ArraySize[T any] struct {
	min *int
	max *int
}

// NewArraySize creates a slice length validator.
func NewArraySize[T any](min, max *int) ArraySize[T] {
	return ArraySize[T]{min: copyBound(min), max: copyBound(max)}
}

// Type returns TypeArraySize.
func (ArraySize[T]) Type() Type { return TypeArraySize }

// Min returns the minimum size, or nil.
func (v ArraySize[T]) Min() *int { return copyBound(v.min) }

// Max returns the maximum size, or nil.
func (v ArraySize[T]) Max() *int { return copyBound(v.max) }

// IsValid returns true if value meets the size bounds.
func (v ArraySize[T]) IsValid(value []T) bool {
	return withinBounds(len(value), v.min, v.max)
}
