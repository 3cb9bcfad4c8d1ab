package form

import (
	"slices"

	"github.com/artpar/formgate/domain/validator"
)

// TextField is a free-text field constrained by caller-supplied validators.
type TextField struct {
	base[string]
}

// NewText creates a text field. A nil value means no value is set.
func NewText(id string, value *string, required bool, validators ...validator.Validator[string]) *TextField {
	return &TextField{base: newBase(id, FieldTypeText, value, required, validators)}
}

// SetValue sets the value.
func (f *TextField) SetValue(v string) { f.value = &v }

// SetValidators replaces the validator list.
func (f *TextField) SetValidators(validators ...validator.Validator[string]) {
	f.validators = slices.Clone(validators)
}

// Duplicate returns a copy of the field with the given id.
func (f *TextField) Duplicate(id string) Field {
	return &TextField{base: f.clone(id, nil)}
}

// EmailField holds a single email address. Its email validator is fixed.
type EmailField struct {
	base[string]
}

// NewEmail creates an email field.
func NewEmail(id string, value *string, required bool) *EmailField {
	return &EmailField{base: newBase(id, FieldTypeEmail, value, required,
		[]validator.Validator[string]{validator.NewEmail()})}
}

// SetValue sets the value.
func (f *EmailField) SetValue(v string) { f.value = &v }

// Duplicate returns a copy of the field with the given id.
func (f *EmailField) Duplicate(id string) Field {
	return &EmailField{base: f.clone(id, nil)}
}

// SingleSelectField is a dropdown where exactly one of the possible values
// may be chosen.
type SingleSelectField struct {
	base[string]
	possible []string
}

// NewSingleSelect creates a single-select field restricted to possible.
func NewSingleSelect(id string, value *string, required bool, possible []string) *SingleSelectField {
	possible = slices.Clone(possible)
	return &SingleSelectField{
		base: newBase(id, FieldTypeSingleSelect, value, required,
			[]validator.Validator[string]{validator.NewArrayContains(possible)}),
		possible: possible,
	}
}

// PossibleValues returns a copy of the selectable values.
func (f *SingleSelectField) PossibleValues() []string {
	return slices.Clone(f.possible)
}

// SetValue sets the value. A value outside the possible values makes the
// field invalid but is not rejected.
func (f *SingleSelectField) SetValue(v string) { f.value = &v }

// Duplicate returns a copy of the field with the given id.
func (f *SingleSelectField) Duplicate(id string) Field {
	return &SingleSelectField{base: f.clone(id, nil), possible: slices.Clone(f.possible)}
}

// BooleanField is a yes/no field.
type BooleanField struct {
	base[bool]
}

// NewBoolean creates a boolean field.
func NewBoolean(id string, value *bool, required bool) *BooleanField {
	return &BooleanField{base: newBase(id, FieldTypeBoolean, value, required,
		[]validator.Validator[bool]{validator.NewArrayContains([]bool{true, false})})}
}

// SetValue sets the value.
func (f *BooleanField) SetValue(v bool) { f.value = &v }

// Duplicate returns a copy of the field with the given id.
func (f *BooleanField) Duplicate(id string) Field {
	return &BooleanField{base: f.clone(id, nil)}
}

// FileField holds URIs of files already uploaded to a file store.
type FileField struct {
	base[[]string]
}

// NewFile creates a file field.
func NewFile(id string, uris []string, required bool, validators ...validator.Validator[[]string]) *FileField {
	var value *[]string
	if uris != nil {
		v := slices.Clone(uris)
		value = &v
	}
	return &FileField{base: newBase(id, FieldTypeFile, value, required, validators)}
}

// Value returns a copy of the URIs, or nil when no value is set.
func (f *FileField) Value() any {
	if f.value == nil {
		return nil
	}
	return slices.Clone(*f.value)
}

// SetValue sets the URIs.
func (f *FileField) SetValue(uris []string) {
	v := slices.Clone(uris)
	if v == nil {
		v = []string{}
	}
	f.value = &v
}

// SetValidators replaces the validator list.
func (f *FileField) SetValidators(validators ...validator.Validator[[]string]) {
	f.validators = slices.Clone(validators)
}

// Duplicate returns a copy of the field with the given id.
func (f *FileField) Duplicate(id string) Field {
	return &FileField{base: f.clone(id, slices.Clone[[]string])}
}

// Compile-time checks that every kind is a Field.
var (
	_ Field = (*TextField)(nil)
	_ Field = (*EmailField)(nil)
	_ Field = (*SingleSelectField)(nil)
	_ Field = (*BooleanField)(nil)
	_ Field = (*FileField)(nil)
)

// Ptr returns a pointer to v. It is a convenience for building field values.
func Ptr[T any](v T) *T {
	return &v
}
