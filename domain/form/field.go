package form

import (
	"slices"

	"github.com/artpar/formgate/domain/validator"
)

// FieldType identifies the concrete kind of a field. It never changes
// after the field is created.
type FieldType string

const (
	FieldTypeText         FieldType = "text"
	FieldTypeEmail        FieldType = "email"
	FieldTypeSingleSelect FieldType = "single_select"
	FieldTypeBoolean      FieldType = "boolean"
	FieldTypeFile         FieldType = "file"
)

// IsValid returns true if the field type is a known type.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypeSingleSelect, FieldTypeBoolean, FieldTypeFile:
		return true
	}
	return false
}

// Field is a typed input slot. The set of implementations is closed:
// TextField, EmailField, SingleSelectField, BooleanField and FileField.
type Field interface {
	ID() string
	Type() FieldType

	// Value returns the current value, or nil when no value is set.
	Value() any
	HasValue() bool
	Required() bool

	// Visible is derived by the owning section from the dependency graph.
	Visible() bool

	// IsValid reports whether the required flag and all validators are satisfied.
	// Visibility is not taken into account.
	IsValid() bool

	// Duplicate returns an independent copy with the given id. The copy is
	// visible and belongs to no dependency.
	Duplicate(id string) Field

	setVisible(visible bool)
}

// base holds the state shared by every field kind.
type base[T any] struct {
	id         string
	kind       FieldType
	value      *T
	required   bool
	visible    bool
	validators []validator.Validator[T]
}

func newBase[T any](id string, kind FieldType, value *T, required bool, validators []validator.Validator[T]) base[T] {
	b := base[T]{
		id:         id,
		kind:       kind,
		required:   required,
		visible:    true,
		validators: slices.Clone(validators),
	}
	if value != nil {
		v := *value
		b.value = &v
	}
	return b
}

func (b *base[T]) ID() string      { return b.id }
func (b *base[T]) Type() FieldType { return b.kind }
func (b *base[T]) Required() bool  { return b.required }
func (b *base[T]) Visible() bool   { return b.visible }
func (b *base[T]) HasValue() bool  { return b.value != nil }

func (b *base[T]) Value() any {
	if b.value == nil {
		return nil
	}
	return *b.value
}

// Get returns the typed value and whether it is present.
func (b *base[T]) Get() (T, bool) {
	if b.value == nil {
		var zero T
		return zero, false
	}
	return *b.value, true
}

// Validators returns a copy of the validator list.
func (b *base[T]) Validators() []validator.Validator[T] {
	return slices.Clone(b.validators)
}

// SetRequired sets the required flag.
func (b *base[T]) SetRequired(required bool) {
	b.required = required
}

// ClearValue removes the value.
func (b *base[T]) ClearValue() {
	b.value = nil
}

func (b *base[T]) setVisible(visible bool) {
	b.visible = visible
}

func (b *base[T]) IsValid() bool {
	if b.value == nil {
		return !b.required
	}
	for _, v := range b.validators {
		if !v.IsValid(*b.value) {
			return false
		}
	}
	return true
}

// clone copies b with a new id, resetting visibility. copyValue is used to
// deep-copy reference-typed values.
func (b *base[T]) clone(id string, copyValue func(T) T) base[T] {
	c := base[T]{
		id:         id,
		kind:       b.kind,
		required:   b.required,
		visible:    true,
		validators: slices.Clone(b.validators),
	}
	if b.value != nil {
		v := *b.value
		if copyValue != nil {
			v = copyValue(v)
		}
		c.value = &v
	}
	return c
}

// snapshot returns an independent copy of f with the same id and visibility.
func snapshot(f Field) Field {
	c := f.Duplicate(f.ID())
	c.setVisible(f.Visible())
	return c
}
