// Package app provides the services that apply form operations on top of
// storage and event publishing.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/formgate/adapters/metrics"
	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/ports"
)

// FormService loads a form, applies one engine operation, checks the
// section invariants, saves the form and announces the change. Operations on
// the same form are serialized.
type FormService struct {
	store   ports.FormStore
	events  ports.EventPublisher
	clock   ports.Clock
	ids     ports.IDGenerator
	metrics *metrics.Collector
	logger  zerolog.Logger
	locks   *formLocks
}

// NewFormService creates a form service. m may be nil.
func NewFormService(
	store ports.FormStore,
	events ports.EventPublisher,
	clock ports.Clock,
	ids ports.IDGenerator,
	m *metrics.Collector,
	logger zerolog.Logger,
) *FormService {
	return &FormService{
		store:   store,
		events:  events,
		clock:   clock,
		ids:     ids,
		metrics: m,
		logger:  logger.With().Str("service", "form").Logger(),
		locks:   newFormLocks(),
	}
}

// Validity reports which fields of a form are invalid.
type Validity struct {
	FormID        string              `json:"formId"`
	Valid         bool                `json:"valid"`
	InvalidFields map[string][]string `json:"invalidFields"`
}

// change describes a committed mutation. A nil change means the operation
// was a no-op and nothing is saved.
type change struct {
	event     ports.EventType
	sectionID string
	fieldID   string
}

// -----------------------------------------------------------------------------
// Forms
// -----------------------------------------------------------------------------

// CreateForm creates and stores an empty form.
func (s *FormService) CreateForm(ctx context.Context, name string) (*form.Form, error) {
	now := s.clock.Now()
	f := form.New(s.ids.New(), name)
	f.CreatedAt = now
	f.UpdatedAt = now

	if err := s.store.Save(ctx, f); err != nil {
		s.metrics.RecordOperation("create_form", err)
		return nil, fmt.Errorf("create form: %w", err)
	}
	s.publish(ctx, ports.FormEvent{Type: ports.EventFormCreated, FormID: f.ID, At: now})
	s.metrics.RecordOperation("create_form", nil)
	s.logger.Info().Str("form_id", f.ID).Str("name", name).Msg("form created")
	return f, nil
}

// ImportForm stores a complete form, replacing any form with the same id.
// Missing timestamps are filled in.
func (s *FormService) ImportForm(ctx context.Context, f *form.Form) error {
	unlock := s.locks.lock(f.ID)
	defer unlock()

	if err := f.Verify(); err != nil {
		s.metrics.RecordOperation("import_form", err)
		return err
	}
	now := s.clock.Now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	if err := s.store.Save(ctx, f); err != nil {
		s.metrics.RecordOperation("import_form", err)
		return fmt.Errorf("import form %q: %w", f.ID, err)
	}
	s.publish(ctx, ports.FormEvent{Type: ports.EventFormCreated, FormID: f.ID, At: now})
	s.metrics.RecordOperation("import_form", nil)
	s.logger.Info().Str("form_id", f.ID).Int("sections", len(f.Sections())).Msg("form imported")
	return nil
}

// GetForm loads a form.
func (s *FormService) GetForm(ctx context.Context, id string) (*form.Form, error) {
	return s.store.Get(ctx, id)
}

// ListForms lists stored forms.
func (s *FormService) ListForms(ctx context.Context) ([]ports.FormSummary, error) {
	return s.store.List(ctx)
}

// DeleteForm deletes a form.
func (s *FormService) DeleteForm(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		s.metrics.RecordOperation("delete_form", err)
		return err
	}
	s.publish(ctx, ports.FormEvent{Type: ports.EventFormDeleted, FormID: id, At: s.clock.Now()})
	s.metrics.RecordOperation("delete_form", nil)
	s.logger.Info().Str("form_id", id).Msg("form deleted")
	return nil
}

// Validity checks every field of a form. Hidden fields are included.
func (s *FormService) Validity(ctx context.Context, id string) (Validity, error) {
	f, err := s.store.Get(ctx, id)
	if err != nil {
		return Validity{}, err
	}
	return Validity{FormID: f.ID, Valid: f.IsValid(), InvalidFields: f.InvalidFieldIDs()}, nil
}

// -----------------------------------------------------------------------------
// Sections
// -----------------------------------------------------------------------------

// AddSection appends an empty section. An empty sectionID is generated.
func (s *FormService) AddSection(ctx context.Context, formID, sectionID string) (*form.Section, error) {
	if sectionID == "" {
		sectionID = s.ids.New()
	}
	var added *form.Section
	_, err := s.update(ctx, "add_section", formID, func(f *form.Form) (*change, error) {
		added = form.NewSection(sectionID, form.WithIDGenerator(s.ids))
		if err := f.AddSection(added); err != nil {
			return nil, err
		}
		return &change{event: ports.EventSectionAdded, sectionID: sectionID}, nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveSection removes a section. Removing a missing section is a no-op.
func (s *FormService) RemoveSection(ctx context.Context, formID, sectionID string) error {
	_, err := s.update(ctx, "remove_section", formID, func(f *form.Form) (*change, error) {
		if _, ok := f.Section(sectionID); !ok {
			return nil, nil
		}
		f.RemoveSection(sectionID)
		return &change{event: ports.EventSectionRemoved, sectionID: sectionID}, nil
	})
	return err
}

// MoveSection moves a section to index, clamped to the valid range.
func (s *FormService) MoveSection(ctx context.Context, formID, sectionID string, index int) error {
	_, err := s.update(ctx, "move_section", formID, func(f *form.Form) (*change, error) {
		if err := f.MoveSection(sectionID, index); err != nil {
			return nil, err
		}
		return &change{event: ports.EventSectionMoved, sectionID: sectionID}, nil
	})
	return err
}

// -----------------------------------------------------------------------------
// Fields
// -----------------------------------------------------------------------------

// CreateField adds a field to a section.
func (s *FormService) CreateField(ctx context.Context, formID, sectionID string, fld form.Field) (*form.Section, error) {
	return s.updateSection(ctx, "create_field", formID, sectionID, func(sec *form.Section) (*change, error) {
		if err := sec.CreateField(fld); err != nil {
			return nil, err
		}
		return &change{event: ports.EventFieldCreated, fieldID: fld.ID()}, nil
	})
}

// PutField creates the field or replaces the field with the same id, and
// reports whether it was created.
func (s *FormService) PutField(ctx context.Context, formID, sectionID string, fld form.Field) (*form.Section, bool, error) {
	var created bool
	sec, err := s.updateSection(ctx, "put_field", formID, sectionID, func(sec *form.Section) (*change, error) {
		var err error
		created, err = sec.CreateOrUpdateField(fld)
		if err != nil {
			return nil, err
		}
		if created {
			return &change{event: ports.EventFieldCreated, fieldID: fld.ID()}, nil
		}
		return &change{event: ports.EventFieldUpdated, fieldID: fld.ID()}, nil
	})
	return sec, created, err
}

// DeleteField removes a field and its dependencies. Deleting a missing field
// is a no-op.
func (s *FormService) DeleteField(ctx context.Context, formID, sectionID, fieldID string) (*form.Section, error) {
	return s.updateSection(ctx, "delete_field", formID, sectionID, func(sec *form.Section) (*change, error) {
		if _, ok := sec.Field(fieldID); !ok {
			return nil, nil
		}
		sec.DeleteField(fieldID)
		return &change{event: ports.EventFieldDeleted, fieldID: fieldID}, nil
	})
}

// MoveField moves a field to index within its section.
func (s *FormService) MoveField(ctx context.Context, formID, sectionID, fieldID string, index int) (*form.Section, error) {
	return s.updateSection(ctx, "move_field", formID, sectionID, func(sec *form.Section) (*change, error) {
		if err := sec.MoveField(fieldID, index); err != nil {
			return nil, err
		}
		return &change{event: ports.EventFieldMoved, fieldID: fieldID}, nil
	})
}

// DuplicateField copies a field under a generated id. It returns the copy
// and the committed section.
func (s *FormService) DuplicateField(ctx context.Context, formID, sectionID, fieldID string) (form.Field, *form.Section, error) {
	var dup form.Field
	sec, err := s.updateSection(ctx, "duplicate_field", formID, sectionID, func(sec *form.Section) (*change, error) {
		var err error
		dup, err = sec.DuplicateField(fieldID)
		if err != nil {
			return nil, err
		}
		return &change{event: ports.EventFieldDuplicated, fieldID: dup.ID()}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return dup, sec, nil
}

// -----------------------------------------------------------------------------
// Dependencies
// -----------------------------------------------------------------------------

// ListDependencies returns the dependencies that involve a field without
// changing anything.
func (s *FormService) ListDependencies(ctx context.Context, formID, sectionID, fieldID string) ([]form.Dependency, error) {
	f, err := s.store.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	sec, err := sectionOf(f, sectionID)
	if err != nil {
		return nil, err
	}
	if _, ok := sec.Field(fieldID); !ok {
		return nil, fmt.Errorf("field %q: %w", fieldID, form.ErrNotFound)
	}
	return sec.ListDependencies(fieldID), nil
}

// CreateDependency registers dep, generating its id when empty. It returns
// the stored dependency and the committed section.
func (s *FormService) CreateDependency(ctx context.Context, formID, sectionID string, dep form.Dependency) (form.Dependency, *form.Section, error) {
	if dep.ID == "" {
		dep.ID = s.ids.New()
	}
	sec, err := s.updateSection(ctx, "create_dependency", formID, sectionID, func(sec *form.Section) (*change, error) {
		if err := sec.CreateDependency(dep); err != nil {
			return nil, err
		}
		return &change{event: ports.EventDependencyCreated, fieldID: dep.ChildID}, nil
	})
	if err != nil {
		return form.Dependency{}, nil, err
	}
	return dep, sec, nil
}

// DeleteDependency removes the dependency of childID. It is a no-op when the
// child has none.
func (s *FormService) DeleteDependency(ctx context.Context, formID, sectionID, childID string) (*form.Section, error) {
	return s.updateSection(ctx, "delete_dependency", formID, sectionID, func(sec *form.Section) (*change, error) {
		dep, ok := sec.Dependency(childID)
		if !ok {
			return nil, nil
		}
		sec.DeleteDependency(&dep)
		return &change{event: ports.EventDependencyDeleted, fieldID: childID}, nil
	})
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

func sectionOf(f *form.Form, sectionID string) (*form.Section, error) {
	sec, ok := f.Section(sectionID)
	if !ok {
		return nil, fmt.Errorf("section %q: %w", sectionID, form.ErrNotFound)
	}
	return sec, nil
}

func (s *FormService) updateSection(ctx context.Context, op, formID, sectionID string, apply func(*form.Section) (*change, error)) (*form.Section, error) {
	f, err := s.update(ctx, op, formID, func(f *form.Form) (*change, error) {
		sec, err := sectionOf(f, sectionID)
		if err != nil {
			return nil, err
		}
		ch, err := apply(sec)
		if ch != nil {
			ch.sectionID = sectionID
		}
		return ch, err
	})
	if err != nil {
		return nil, err
	}
	sec, _ := f.Section(sectionID)
	return sec, nil
}

// update runs apply under the form's lock and commits the result.
func (s *FormService) update(ctx context.Context, op, formID string, apply func(*form.Form) (*change, error)) (*form.Form, error) {
	unlock := s.locks.lock(formID)
	defer unlock()

	f, err := s.store.Get(ctx, formID)
	if err != nil {
		s.metrics.RecordOperation(op, err)
		return nil, err
	}

	ch, err := apply(f)
	if err == nil {
		err = f.Verify()
	}
	if err != nil {
		s.metrics.RecordOperation(op, err)
		s.logger.Debug().Err(err).Str("op", op).Str("form_id", formID).Msg("operation rejected")
		return nil, err
	}
	if ch == nil {
		s.metrics.RecordOperation(op, nil)
		return f, nil
	}

	f.UpdatedAt = s.clock.Now()
	if err := s.store.Save(ctx, f); err != nil {
		s.metrics.RecordOperation(op, err)
		return nil, fmt.Errorf("%s: save form %q: %w", op, formID, err)
	}

	s.publish(ctx, ports.FormEvent{
		Type:      ch.event,
		FormID:    formID,
		SectionID: ch.sectionID,
		FieldID:   ch.fieldID,
		At:        f.UpdatedAt,
	})
	if sec, ok := f.Section(ch.sectionID); ok {
		s.metrics.ObserveSection(sec.Len(), len(sec.Dependencies()))
	}
	s.metrics.RecordOperation(op, nil)
	s.logger.Info().
		Str("op", op).
		Str("form_id", formID).
		Str("section_id", ch.sectionID).
		Str("field_id", ch.fieldID).
		Msg("form updated")
	return f, nil
}

// publish sends an event. The change is already saved, so failures are
// logged and counted only.
func (s *FormService) publish(ctx context.Context, e ports.FormEvent) {
	err := s.events.Publish(ctx, e)
	s.metrics.RecordEvent(string(e.Type), err)
	if err != nil {
		s.logger.Warn().Err(err).Str("event", string(e.Type)).Str("form_id", e.FormID).Msg("publish event failed")
	}
}
