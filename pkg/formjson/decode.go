package formjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/domain/validator"
)

// DecodeField builds a field from its payload.
func DecodeField(p FieldPayload) (form.Field, error) {
	return decodeField(p, "field")
}

func decodeField(p FieldPayload, path string) (form.Field, error) {
	if p.FieldType == "" {
		return nil, deserializationErrorf(joinPath(path, "fieldType"), "missing field type")
	}
	if p.ID == "" {
		return nil, deserializationErrorf(joinPath(path, "id"), "missing id")
	}
	valuePath := joinPath(path, "value")

	switch form.FieldType(p.FieldType) {
	case form.FieldTypeText:
		value, err := decodeValue[string](p.Value, valuePath)
		if err != nil {
			return nil, err
		}
		validators, err := decodeValidators(p, path, DecodeTextValidator)
		if err != nil {
			return nil, err
		}
		return form.NewText(p.ID, value, p.Required, validators...), nil

	case form.FieldTypeEmail:
		if err := rejectValidators(p, path); err != nil {
			return nil, err
		}
		value, err := decodeValue[string](p.Value, valuePath)
		if err != nil {
			return nil, err
		}
		return form.NewEmail(p.ID, value, p.Required), nil

	case form.FieldTypeSingleSelect:
		if err := rejectValidators(p, path); err != nil {
			return nil, err
		}
		if p.PossibleValues == nil {
			return nil, deserializationErrorf(joinPath(path, "possibleValues"), "missing possible values")
		}
		value, err := decodeValue[string](p.Value, valuePath)
		if err != nil {
			return nil, err
		}
		return form.NewSingleSelect(p.ID, value, p.Required, p.PossibleValues), nil

	case form.FieldTypeBoolean:
		if err := rejectValidators(p, path); err != nil {
			return nil, err
		}
		value, err := decodeValue[bool](p.Value, valuePath)
		if err != nil {
			return nil, err
		}
		return form.NewBoolean(p.ID, value, p.Required), nil

	case form.FieldTypeFile:
		value, err := decodeValue[[]string](p.Value, valuePath)
		if err != nil {
			return nil, err
		}
		validators, err := decodeValidators(p, path, DecodeFileValidator)
		if err != nil {
			return nil, err
		}
		var uris []string
		if value != nil {
			uris = *value
			if uris == nil {
				uris = []string{}
			}
		}
		return form.NewFile(p.ID, uris, p.Required, validators...), nil

	default:
		return nil, deserializationErrorf(joinPath(path, "fieldType"), "unknown field type %q", p.FieldType)
	}
}

// DecodeTextValidator builds a validator that can be attached to a text field.
func DecodeTextValidator(p ValidatorPayload) (validator.Validator[string], error) {
	return decodeTextValidator(p, "validator")
}

func decodeTextValidator(p ValidatorPayload, path string) (validator.Validator[string], error) {
	if p.ValidatorType == "" {
		return nil, deserializationErrorf(joinPath(path, "validatorType"), "missing validator type")
	}

	switch validator.Type(p.ValidatorType) {
	case validator.TypeTextLength:
		if err := checkBounds(p, path); err != nil {
			return nil, err
		}
		return validator.NewTextLength(p.MinLength, p.MaxLength), nil
	case validator.TypeTextContains:
		if p.QueryString == nil {
			return nil, deserializationErrorf(joinPath(path, "queryString"), "missing query string")
		}
		return validator.NewTextContains(*p.QueryString), nil
	case validator.TypeEmail:
		return validator.NewEmail(), nil
	case validator.TypeArrayContains:
		return validator.NewArrayContains(p.AllowedValues), nil
	case validator.TypeArraySize:
		return nil, deserializationErrorf(joinPath(path, "validatorType"), "%s does not apply to text values", p.ValidatorType)
	default:
		return nil, deserializationErrorf(joinPath(path, "validatorType"), "unknown validator type %q", p.ValidatorType)
	}
}

// DecodeFileValidator builds a validator that can be attached to a file field.
func DecodeFileValidator(p ValidatorPayload) (validator.Validator[[]string], error) {
	return decodeFileValidator(p, "validator")
}

func decodeFileValidator(p ValidatorPayload, path string) (validator.Validator[[]string], error) {
	if p.ValidatorType == "" {
		return nil, deserializationErrorf(joinPath(path, "validatorType"), "missing validator type")
	}

	switch validator.Type(p.ValidatorType) {
	case validator.TypeArraySize:
		if err := checkBounds(p, path); err != nil {
			return nil, err
		}
		return validator.NewArraySize[string](p.MinLength, p.MaxLength), nil
	case validator.TypeTextLength, validator.TypeTextContains, validator.TypeEmail, validator.TypeArrayContains:
		return nil, deserializationErrorf(joinPath(path, "validatorType"), "%s does not apply to file values", p.ValidatorType)
	default:
		return nil, deserializationErrorf(joinPath(path, "validatorType"), "unknown validator type %q", p.ValidatorType)
	}
}

// DecodeDependency builds a dependency from its payload. A missing
// parentValue is decoded as nil, which matches a parent without a value.
func DecodeDependency(p DependencyPayload) (form.Dependency, error) {
	return decodeDependency(p, "dependency")
}

func decodeDependency(p DependencyPayload, path string) (form.Dependency, error) {
	if p.ChildID == "" {
		return form.Dependency{}, deserializationErrorf(joinPath(path, "childId"), "missing child id")
	}
	if p.ParentID == "" {
		return form.Dependency{}, deserializationErrorf(joinPath(path, "parentId"), "missing parent id")
	}

	var trigger any
	if !isNull(p.ParentValue) {
		if err := json.Unmarshal(p.ParentValue, &trigger); err != nil {
			return form.Dependency{}, deserializationErrorf(joinPath(path, "parentValue"), "invalid JSON: %v", err)
		}
	}
	return form.NewDependency(p.ID, p.ChildID, p.ParentID, trigger), nil
}

// DecodeSection builds a section by creating every field in order and then
// every dependency, so visibility is computed by the section itself.
func DecodeSection(doc SectionDocument, opts ...form.SectionOption) (*form.Section, error) {
	return decodeSection(doc, "section", opts)
}

func decodeSection(doc SectionDocument, path string, opts []form.SectionOption) (*form.Section, error) {
	if doc.ID == "" {
		return nil, deserializationErrorf(joinPath(path, "id"), "missing id")
	}

	s := form.NewSection(doc.ID, opts...)
	for i, fp := range doc.Fields {
		f, err := decodeField(fp, fmt.Sprintf("%s.fields[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if err := s.CreateField(f); err != nil {
			return nil, fmt.Errorf("section %q: %w", doc.ID, err)
		}
	}
	for i, dp := range doc.Dependencies {
		dep, err := decodeDependency(dp, fmt.Sprintf("%s.dependencies[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if err := s.CreateDependency(dep); err != nil {
			return nil, fmt.Errorf("section %q: %w", doc.ID, err)
		}
	}
	return s, nil
}

// DecodeForm builds a form and all of its sections.
func DecodeForm(doc FormDocument, opts ...form.SectionOption) (*form.Form, error) {
	if doc.ID == "" {
		return nil, deserializationErrorf("form.id", "missing id")
	}

	f := form.New(doc.ID, doc.Name)
	f.CreatedAt = doc.CreatedAt
	f.UpdatedAt = doc.UpdatedAt
	for i, sd := range doc.Sections {
		s, err := decodeSection(sd, fmt.Sprintf("form.sections[%d]", i), opts)
		if err != nil {
			return nil, err
		}
		if err := f.AddSection(s); err != nil {
			return nil, fmt.Errorf("form %q: %w", doc.ID, err)
		}
	}
	return f, nil
}

// UnmarshalForm parses a JSON form document and decodes it.
func UnmarshalForm(data []byte, opts ...form.SectionOption) (*form.Form, error) {
	var doc FormDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DeserializationError{Path: "form", Reason: err.Error()}
	}
	return DecodeForm(doc, opts...)
}

// decodeValidators collects the single validator and the validator list, in
// that order.
func decodeValidators[T any](p FieldPayload, path string, decode func(ValidatorPayload) (validator.Validator[T], error)) ([]validator.Validator[T], error) {
	var out []validator.Validator[T]
	if p.Validator != nil {
		v, err := decode(*p.Validator)
		if err != nil {
			return nil, prefixPath(err, joinPath(path, "validator"))
		}
		out = append(out, v)
	}
	for i, vp := range p.Validators {
		v, err := decode(vp)
		if err != nil {
			return nil, prefixPath(err, fmt.Sprintf("%s.validators[%d]", path, i))
		}
		out = append(out, v)
	}
	return out, nil
}

func rejectValidators(p FieldPayload, path string) error {
	if p.Validator != nil || len(p.Validators) > 0 {
		return deserializationErrorf(joinPath(path, "validator"), "%s fields do not accept validators", p.FieldType)
	}
	return nil
}

func checkBounds(p ValidatorPayload, path string) error {
	if p.MinLength != nil && *p.MinLength < 0 {
		return deserializationErrorf(joinPath(path, "minLength"), "must not be negative")
	}
	if p.MaxLength != nil && *p.MaxLength < 0 {
		return deserializationErrorf(joinPath(path, "maxLength"), "must not be negative")
	}
	return nil
}

// prefixPath rewrites the leading "validator" element of a nested error path.
func prefixPath(err error, path string) error {
	de, ok := err.(*DeserializationError)
	if !ok {
		return err
	}
	return &DeserializationError{Path: path + strings.TrimPrefix(de.Path, "validator"), Reason: de.Reason}
}

func decodeValue[T any](raw json.RawMessage, path string) (*T, error) {
	if isNull(raw) {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, deserializationErrorf(path, "want %s", jsonKind[T]())
	}
	return &v, nil
}

func jsonKind[T any]() string {
	var zero T
	switch any(zero).(type) {
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case []string:
		return "an array of strings"
	}
	return fmt.Sprintf("%T", zero)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
