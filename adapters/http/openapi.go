package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/artpar/formgate/pkg/formjson"
)

type operation struct {
	method  string
	path    string
	summary string
	request string
	status  int
	reply   string
}

var operations = []operation{
	{http.MethodGet, "/api/forms", "List forms", "", http.StatusOK, ""},
	{http.MethodPost, "/api/forms", "Create a form", "", http.StatusCreated, "form"},
	{http.MethodPost, "/api/forms/import", "Import a form document", "form", http.StatusCreated, "form"},
	{http.MethodGet, "/api/forms/{formID}", "Get a form", "", http.StatusOK, "form"},
	{http.MethodDelete, "/api/forms/{formID}", "Delete a form", "", http.StatusNoContent, ""},
	{http.MethodGet, "/api/forms/{formID}/validity", "Check form validity", "", http.StatusOK, ""},
	{http.MethodPost, "/api/forms/{formID}/sections", "Add a section", "", http.StatusCreated, "section"},
	{http.MethodGet, "/api/forms/{formID}/sections/{sectionID}", "Get a section", "", http.StatusOK, "section"},
	{http.MethodDelete, "/api/forms/{formID}/sections/{sectionID}", "Remove a section", "", http.StatusNoContent, ""},
	{http.MethodPost, "/api/forms/{formID}/sections/{sectionID}/move", "Move a section", "", http.StatusOK, "form"},
	{http.MethodPost, "/api/forms/{formID}/sections/{sectionID}/fields", "Create a field", "field", http.StatusCreated, "section"},
	{http.MethodPut, "/api/forms/{formID}/sections/{sectionID}/fields/{fieldID}", "Create or update a field", "field", http.StatusOK, "section"},
	{http.MethodDelete, "/api/forms/{formID}/sections/{sectionID}/fields/{fieldID}", "Delete a field", "", http.StatusOK, "section"},
	{http.MethodPost, "/api/forms/{formID}/sections/{sectionID}/fields/{fieldID}/move", "Move a field", "", http.StatusOK, "section"},
	{http.MethodPost, "/api/forms/{formID}/sections/{sectionID}/fields/{fieldID}/duplicate", "Duplicate a field", "", http.StatusCreated, ""},
	{http.MethodGet, "/api/forms/{formID}/sections/{sectionID}/fields/{fieldID}/dependencies", "List the dependencies of a field", "", http.StatusOK, ""},
	{http.MethodPost, "/api/forms/{formID}/sections/{sectionID}/dependencies", "Create a dependency", "dependency", http.StatusCreated, "section"},
	{http.MethodDelete, "/api/forms/{formID}/sections/{sectionID}/dependencies/{childID}", "Delete the dependency of a field", "", http.StatusOK, "section"},
}

// OpenAPIDocument builds the OpenAPI 3 description of the form API. Payload
// schemas come from formjson.
func OpenAPIDocument(version string) map[string]any {
	paths := make(map[string]map[string]any)
	for _, op := range operations {
		item, ok := paths[op.path]
		if !ok {
			item = make(map[string]any)
			paths[op.path] = item
		}
		item[strings.ToLower(op.method)] = op.describe()
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "formgate",
			"version": version,
		},
		"paths": paths,
		"components": map[string]any{
			"schemas": formjson.Schemas(),
			"securitySchemes": map[string]any{
				"ApiKeyAuth": map[string]any{"type": "apiKey", "in": "header", "name": APIKeyHeader},
			},
		},
	}
}

func (op operation) describe() map[string]any {
	out := map[string]any{
		"summary": op.summary,
	}

	var params []map[string]any
	for _, seg := range strings.Split(op.path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			params = append(params, map[string]any{
				"name":     strings.Trim(seg, "{}"),
				"in":       "path",
				"required": true,
				"schema":   map[string]string{"type": "string"},
			})
		}
	}
	if len(params) > 0 {
		out["parameters"] = params
	}
	if op.request != "" {
		out["requestBody"] = map[string]any{
			"required": true,
			"content":  jsonContent(op.request),
		}
	}
	if op.method != http.MethodGet {
		out["security"] = []map[string][]string{{"ApiKeyAuth": {}}}
	}

	reply := map[string]any{"description": http.StatusText(op.status)}
	if op.reply != "" {
		reply["content"] = jsonContent(op.reply)
	}
	out["responses"] = map[string]any{
		strconv.Itoa(op.status): reply,
		"default":            map[string]any{"description": "Error"},
	}
	return out
}

func jsonContent(schema string) map[string]any {
	return map[string]any{
		"application/json": map[string]any{
			"schema": map[string]string{"$ref": "#/components/schemas/" + schema},
		},
	}
}
