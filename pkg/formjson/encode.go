package formjson

import (
	"encoding/json"
	"fmt"

	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/domain/validator"
)

// EncodeField returns the payload of a field, including its current
// visibility and validity.
func EncodeField(f form.Field) (FieldPayload, error) {
	p := FieldPayload{
		ID:        f.ID(),
		FieldType: string(f.Type()),
		Required:  f.Required(),
		Visible:   boolPtr(f.Visible()),
		Valid:     boolPtr(f.IsValid()),
	}
	if f.HasValue() {
		raw, err := json.Marshal(f.Value())
		if err != nil {
			return FieldPayload{}, fmt.Errorf("encode field %q value: %w", f.ID(), err)
		}
		p.Value = raw
	}

	switch field := f.(type) {
	case *form.TextField:
		for _, v := range field.Validators() {
			vp, err := EncodeValidator(v)
			if err != nil {
				return FieldPayload{}, fmt.Errorf("encode field %q: %w", f.ID(), err)
			}
			p.Validators = append(p.Validators, vp)
		}
	case *form.FileField:
		for _, v := range field.Validators() {
			vp, err := EncodeValidator(v)
			if err != nil {
				return FieldPayload{}, fmt.Errorf("encode field %q: %w", f.ID(), err)
			}
			p.Validators = append(p.Validators, vp)
		}
	case *form.SingleSelectField:
		p.PossibleValues = field.PossibleValues()
	case *form.EmailField, *form.BooleanField:
	default:
		return FieldPayload{}, fmt.Errorf("encode field %q: unknown field type %s", f.ID(), f.Type())
	}
	return p, nil
}

// EncodeValidator returns the payload of a validator. v must be one of the
// validator package types.
func EncodeValidator(v any) (ValidatorPayload, error) {
	switch val := v.(type) {
	case validator.TextLength:
		return ValidatorPayload{ValidatorType: string(val.Type()), MinLength: val.Min(), MaxLength: val.Max()}, nil
	case validator.TextContains:
		q := val.Query()
		return ValidatorPayload{ValidatorType: string(val.Type()), QueryString: &q}, nil
	case validator.Email:
		return ValidatorPayload{ValidatorType: string(val.Type())}, nil
	case validator.ArrayContains[string]:
		allowed := val.Allowed()
		if allowed == nil {
			allowed = []string{}
		}
		return ValidatorPayload{ValidatorType: string(val.Type()), AllowedValues: allowed}, nil
	case validator.ArraySize[string]:
		return ValidatorPayload{ValidatorType: string(val.Type()), MinLength: val.Min(), MaxLength: val.Max()}, nil
	default:
		return ValidatorPayload{}, fmt.Errorf("%T: %w", v, ErrUnsupportedValidator)
	}
}

// EncodeDependency returns the payload of a dependency.
func EncodeDependency(d form.Dependency) (DependencyPayload, error) {
	raw, err := json.Marshal(d.ParentValue)
	if err != nil {
		return DependencyPayload{}, fmt.Errorf("encode dependency %q: %w", d.ID, err)
	}
	return DependencyPayload{ID: d.ID, ChildID: d.ChildID, ParentID: d.ParentID, ParentValue: raw}, nil
}

// EncodeSection returns the document of a section. Fields are listed in
// display order and dependencies in the order of their child fields.
func EncodeSection(s *form.Section) (SectionDocument, error) {
	doc := SectionDocument{
		ID:           s.ID(),
		Fields:       make([]FieldPayload, 0, s.Len()),
		Dependencies: []DependencyPayload{},
		Valid:        boolPtr(s.IsValid()),
	}
	for _, f := range s.Fields() {
		p, err := EncodeField(f)
		if err != nil {
			return SectionDocument{}, fmt.Errorf("section %q: %w", s.ID(), err)
		}
		doc.Fields = append(doc.Fields, p)
	}
	for _, d := range s.Dependencies() {
		p, err := EncodeDependency(d)
		if err != nil {
			return SectionDocument{}, fmt.Errorf("section %q: %w", s.ID(), err)
		}
		doc.Dependencies = append(doc.Dependencies, p)
	}
	return doc, nil
}

// EncodeForm returns the document of a form.
func EncodeForm(f *form.Form) (FormDocument, error) {
	doc := FormDocument{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		Sections:  []SectionDocument{},
		Valid:     boolPtr(f.IsValid()),
	}
	for _, s := range f.Sections() {
		sd, err := EncodeSection(s)
		if err != nil {
			return FormDocument{}, fmt.Errorf("form %q: %w", f.ID, err)
		}
		doc.Sections = append(doc.Sections, sd)
	}
	return doc, nil
}

// MarshalForm encodes a form as JSON.
func MarshalForm(f *form.Form) ([]byte, error) {
	doc, err := EncodeForm(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func boolPtr(b bool) *bool { return &b }
