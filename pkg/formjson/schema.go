package formjson

import (
	"slices"

	"github.com/invopop/jsonschema"
)

var schemaTypes = map[string]func(*jsonschema.Reflector) *jsonschema.Schema{
	"field":      func(r *jsonschema.Reflector) *jsonschema.Schema { return r.Reflect(new(FieldPayload)) },
	"validator":  func(r *jsonschema.Reflector) *jsonschema.Schema { return r.Reflect(new(ValidatorPayload)) },
	"dependency": func(r *jsonschema.Reflector) *jsonschema.Schema { return r.Reflect(new(DependencyPayload)) },
	"section":    func(r *jsonschema.Reflector) *jsonschema.Schema { return r.Reflect(new(SectionDocument)) },
	"form":       func(r *jsonschema.Reflector) *jsonschema.Schema { return r.Reflect(new(FormDocument)) },
}

// SchemaNames returns the names accepted by Schema, sorted.
func SchemaNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Schema returns the JSON Schema of the named payload.
func Schema(name string) (*jsonschema.Schema, bool) {
	reflect, ok := schemaTypes[name]
	if !ok {
		return nil, false
	}
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return reflect(r), true
}

// Schemas returns the JSON Schema of every payload keyed by name.
func Schemas() map[string]*jsonschema.Schema {
	out := make(map[string]*jsonschema.Schema, len(schemaTypes))
	for _, name := range SchemaNames() {
		out[name], _ = Schema(name)
	}
	return out
}
