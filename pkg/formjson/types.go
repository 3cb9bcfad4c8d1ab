package formjson

import (
	"encoding/json"
	"time"
)

// ValidatorPayload is the wire form of a validator.
type ValidatorPayload struct {
	ValidatorType string   `json:"validatorType" jsonschema:"enum=text_length,enum=text_contains,enum=email,enum=array_contains,enum=array_size"`
	MinLength     *int     `json:"minLength,omitempty" jsonschema:"minimum=0"`
	MaxLength     *int     `json:"maxLength,omitempty" jsonschema:"minimum=0"`
	QueryString   *string  `json:"queryString,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty"`
}

// FieldPayload is the wire form of a field. Visible and Valid are computed
// by the server and ignored on input.
type FieldPayload struct {
	ID             string             `json:"id"`
	FieldType      string             `json:"fieldType" jsonschema:"enum=text,enum=email,enum=single_select,enum=boolean,enum=file"`
	Value          json.RawMessage    `json:"value,omitempty"`
	Required       bool               `json:"required"`
	PossibleValues []string           `json:"possibleValues,omitempty"`
	Validator      *ValidatorPayload  `json:"validator,omitempty"`
	Validators     []ValidatorPayload `json:"validators,omitempty"`
	Visible        *bool              `json:"visible,omitempty"`
	Valid          *bool              `json:"valid,omitempty"`
}

// DependencyPayload is the wire form of a dependency.
type DependencyPayload struct {
	ID          string          `json:"id,omitempty"`
	ChildID     string          `json:"childId"`
	ParentID    string          `json:"parentId"`
	ParentValue json.RawMessage `json:"parentValue,omitempty"`
}

// SectionDocument is the wire form of a section.
type SectionDocument struct {
	ID           string              `json:"id"`
	Fields       []FieldPayload      `json:"fields"`
	Dependencies []DependencyPayload `json:"dependencies"`
	Valid        *bool               `json:"valid,omitempty"`
}

// FormDocument is the wire form of a form.
type FormDocument struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Sections  []SectionDocument `json:"sections"`
	Valid     *bool             `json:"valid,omitempty"`
}
