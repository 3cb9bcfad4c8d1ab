package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/formgate/app"
	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/pkg/formjson"
	"github.com/artpar/formgate/ports"
)

const maxBodyBytes = 1 << 20

// FormHandler serves the form editing API.
type FormHandler struct {
	service *app.FormService
	logger  zerolog.Logger
}

// NewFormHandler creates a form handler.
func NewFormHandler(service *app.FormService, logger zerolog.Logger) *FormHandler {
	return &FormHandler{
		service: service,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

// CreateFormRequest is the body of POST /api/forms.
type CreateFormRequest struct {
	Name string `json:"name"`
}

// AddSectionRequest is the body of POST /api/forms/{formID}/sections.
type AddSectionRequest struct {
	ID string `json:"id,omitempty"`
}

// MoveRequest is the body of the move endpoints.
type MoveRequest struct {
	Index *int `json:"index"`
}

// DuplicateFieldResponse is returned by the duplicate endpoint.
type DuplicateFieldResponse struct {
	Field   formjson.FieldPayload    `json:"field"`
	Section formjson.SectionDocument `json:"section"`
}

// DependenciesResponse lists the dependencies that involve a field.
type DependenciesResponse struct {
	Dependencies []formjson.DependencyPayload `json:"dependencies"`
}

// Register adds the form routes to r, which is mounted at /api/forms.
func (h *FormHandler) Register(r chi.Router) {
	r.Get("/", h.ListForms)
	r.Post("/", h.CreateForm)
	r.Post("/import", h.ImportForm)

	r.Route("/{formID}", func(r chi.Router) {
		r.Get("/", h.GetForm)
		r.Delete("/", h.DeleteForm)
		r.Get("/validity", h.Validity)

		r.Post("/sections", h.AddSection)
		r.Route("/sections/{sectionID}", func(r chi.Router) {
			r.Get("/", h.GetSection)
			r.Delete("/", h.RemoveSection)
			r.Post("/move", h.MoveSection)

			r.Post("/fields", h.CreateField)
			r.Put("/fields/{fieldID}", h.PutField)
			r.Delete("/fields/{fieldID}", h.DeleteField)
			r.Post("/fields/{fieldID}/move", h.MoveField)
			r.Post("/fields/{fieldID}/duplicate", h.DuplicateField)
			r.Get("/fields/{fieldID}/dependencies", h.ListDependencies)

			r.Post("/dependencies", h.CreateDependency)
			r.Delete("/dependencies/{childID}", h.DeleteDependency)
		})
	})
}

// -----------------------------------------------------------------------------
// Forms
// -----------------------------------------------------------------------------

// ListForms handles GET /api/forms.
func (h *FormHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.service.ListForms(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if forms == nil {
		forms = []ports.FormSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"forms": forms, "total": len(forms)})
}

// CreateForm handles POST /api/forms.
func (h *FormHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req CreateFormRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "name is required")
		return
	}
	f, err := h.service.CreateForm(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeForm(w, http.StatusCreated, f)
}

// ImportForm handles POST /api/forms/import. The body is a complete form
// document; an existing form with the same id is replaced.
func (h *FormHandler) ImportForm(w http.ResponseWriter, r *http.Request) {
	var doc formjson.FormDocument
	if !h.decode(w, r, &doc) {
		return
	}
	f, err := formjson.DecodeForm(doc)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if err := h.service.ImportForm(r.Context(), f); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeForm(w, http.StatusCreated, f)
}

// GetForm handles GET /api/forms/{formID}.
func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.GetForm(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeForm(w, http.StatusOK, f)
}

// DeleteForm handles DELETE /api/forms/{formID}.
func (h *FormHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteForm(r.Context(), chi.URLParam(r, "formID")); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Validity handles GET /api/forms/{formID}/validity.
func (h *FormHandler) Validity(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Validity(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// -----------------------------------------------------------------------------
// Sections
// -----------------------------------------------------------------------------

// AddSection handles POST /api/forms/{formID}/sections. The body is optional.
func (h *FormHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	var req AddSectionRequest
	if hasBody(r) && !h.decode(w, r, &req) {
		return
	}
	sec, err := h.service.AddSection(r.Context(), chi.URLParam(r, "formID"), req.ID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeSection(w, http.StatusCreated, sec)
}

// GetSection handles GET /api/forms/{formID}/sections/{sectionID}.
func (h *FormHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.GetForm(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	sec, ok := f.Section(chi.URLParam(r, "sectionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "section not found")
		return
	}
	h.writeSection(w, http.StatusOK, sec)
}

// RemoveSection handles DELETE /api/forms/{formID}/sections/{sectionID}.
func (h *FormHandler) RemoveSection(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveSection(r.Context(), chi.URLParam(r, "formID"), chi.URLParam(r, "sectionID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveSection handles POST /api/forms/{formID}/sections/{sectionID}/move.
func (h *FormHandler) MoveSection(w http.ResponseWriter, r *http.Request) {
	index, ok := h.decodeIndex(w, r)
	if !ok {
		return
	}
	formID := chi.URLParam(r, "formID")
	if err := h.service.MoveSection(r.Context(), formID, chi.URLParam(r, "sectionID"), index); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	f, err := h.service.GetForm(r.Context(), formID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeForm(w, http.StatusOK, f)
}

// -----------------------------------------------------------------------------
// Fields
// -----------------------------------------------------------------------------

// CreateField handles POST .../fields.
func (h *FormHandler) CreateField(w http.ResponseWriter, r *http.Request) {
	fld, ok := h.decodeField(w, r)
	if !ok {
		return
	}
	sec, err := h.service.CreateField(r.Context(), chi.URLParam(r, "formID"), chi.URLParam(r, "sectionID"), fld)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeSection(w, http.StatusCreated, sec)
}

// PutField handles PUT .../fields/{fieldID}. It creates the field or replaces
// the existing one; the type of an existing field cannot change.
func (h *FormHandler) PutField(w http.ResponseWriter, r *http.Request) {
	var p formjson.FieldPayload
	if !h.decode(w, r, &p) {
		return
	}
	fieldID := chi.URLParam(r, "fieldID")
	if p.ID == "" {
		p.ID = fieldID
	}
	if p.ID != fieldID {
		writeError(w, http.StatusBadRequest, "validation_error", "field id does not match the path")
		return
	}
	fld, err := formjson.DecodeField(p)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	sec, created, err := h.service.PutField(r.Context(), chi.URLParam(r, "formID"), chi.URLParam(r, "sectionID"), fld)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeSection(w, status, sec)
}

// DeleteField handles DELETE .../fields/{fieldID}.
func (h *FormHandler) DeleteField(w http.ResponseWriter, r *http.Request) {
	sec, err := h.service.DeleteField(r.Context(), chi.URLParam(r, "formID"), chi.URLParam(r, "sectionID"), chi.URLParam(r, "fieldID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeSection(w, http.StatusOK, sec)
}

// MoveField handles POST .../fields/{fieldID}/move.
func (h *FormHandler) MoveField(w http.ResponseWriter, r *http.Request) {
	index, ok := h.decodeIndex(w, r)
	if !ok {
		return
	}
	sec, err := h.service.MoveField(r.Context(), chi.URLParam(r, "formID"), chi.URLParam(r, "sectionID"), chi.URLParam(r, "fieldID"), index)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeSection(w, http.StatusOK, sec)
}

// DuplicateField handles POST .../fields/{fieldID}/duplicate.
func (h *FormHandler) DuplicateField(w http.ResponseWriter, r *http.Request) {
	formID, sectionID := chi.URLParam(r, "formID"), chi.URLParam(r, "sectionID")
	dup, sec, err := h.service.DuplicateField(r.Context(), formID, sectionID, chi.URLParam(r, "fieldID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	field, err := formjson.EncodeField(dup)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	doc, err := formjson.EncodeSection(sec)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, DuplicateFieldResponse{Field: field, Section: doc})
}

// ListDependencies handles GET .../fields/{fieldID}/dependencies.
func (h *FormHandler) ListDependencies(w http.ResponseWriter, r *http.Request) {
	deps, err := h.service.ListDependencies(r.Context(), chi.URLParam(r, "formID"), chi.URLParam(r, "sectionID"), chi.URLParam(r, "fieldID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	resp := DependenciesResponse{Dependencies: make([]formjson.DependencyPayload, 0, len(deps))}
	for _, d := range deps {
		p, err := formjson.EncodeDependency(d)
		if err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
		resp.Dependencies = append(resp.Dependencies, p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// -----------------------------------------------------------------------------
// Dependencies
// -----------------------------------------------------------------------------

// CreateDependency handles POST .../dependencies.
func (h *FormHandler) CreateDependency(w http.ResponseWriter, r *http.Request) {
	var p formjson.DependencyPayload
	if !h.decode(w, r, &p) {
		return
	}
	dep, err := formjson.DecodeDependency(p)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	_, sec, err := h.service.CreateDependency(r.Context(), chi.URLParam(r, "formID"), chi.URLParam(r, "sectionID"), dep)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeSection(w, http.StatusCreated, sec)
}

// DeleteDependency handles DELETE .../dependencies/{childID}.
func (h *FormHandler) DeleteDependency(w http.ResponseWriter, r *http.Request) {
	sec, err := h.service.DeleteDependency(r.Context(), chi.URLParam(r, "formID"), chi.URLParam(r, "sectionID"), chi.URLParam(r, "childID"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.writeSection(w, http.StatusOK, sec)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (h *FormHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "invalid_json", "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		}
		return false
	}
	return true
}

func (h *FormHandler) decodeField(w http.ResponseWriter, r *http.Request) (form.Field, bool) {
	var p formjson.FieldPayload
	if !h.decode(w, r, &p) {
		return nil, false
	}
	fld, err := formjson.DecodeField(p)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return nil, false
	}
	return fld, true
}

func (h *FormHandler) decodeIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	var req MoveRequest
	if !h.decode(w, r, &req) {
		return 0, false
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "validation_error", "index is required")
		return 0, false
	}
	return *req.Index, true
}

func (h *FormHandler) writeForm(w http.ResponseWriter, status int, f *form.Form) {
	doc, err := formjson.EncodeForm(f)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, status, doc)
}

func (h *FormHandler) writeSection(w http.ResponseWriter, status int, sec *form.Section) {
	doc, err := formjson.EncodeSection(sec)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, status, doc)
}
