package form

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// IDGenerator generates unique identifiers for duplicated fields.
type IDGenerator interface {
	New() string
}

type uuidGenerator struct{}

func (uuidGenerator) New() string { return uuid.NewString() }

// SectionOption configures a Section.
type SectionOption func(*Section)

// WithIDGenerator sets the generator used for duplicated field ids.
func WithIDGenerator(g IDGenerator) SectionOption {
	return func(s *Section) {
		if g != nil {
			s.ids = g
		}
	}
}

// Section is an ordered group of fields with a shared dependency graph.
//
// Every method either succeeds with all invariants intact or returns an
// error without changing any state. Fields are copied on the way in and on
// the way out, so only the section can change a stored field.
type Section struct {
	id     string
	fields map[string]Field
	order  []string
	deps   graph
	ids    IDGenerator
}

// NewSection creates an empty section.
func NewSection(id string, opts ...SectionOption) *Section {
	s := &Section{
		id:     id,
		fields: make(map[string]Field),
		deps:   newGraph(),
		ids:    uuidGenerator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the section id.
func (s *Section) ID() string { return s.id }

// Len returns the number of fields.
func (s *Section) Len() int { return len(s.order) }

// Field returns a copy of the field with the given id.
func (s *Section) Field(id string) (Field, bool) {
	f, ok := s.fields[id]
	if !ok {
		return nil, false
	}
	return snapshot(f), true
}

// Fields returns copies of the fields in display order.
func (s *Section) Fields() []Field {
	out := make([]Field, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, snapshot(s.fields[id]))
	}
	return out
}

// stored returns the section's own instance of a field.
func (s *Section) stored(id string) (Field, bool) {
	f, ok := s.fields[id]
	return f, ok
}

// FieldOrder returns the field ids in display order.
func (s *Section) FieldOrder() []string {
	return slices.Clone(s.order)
}

// Dependency returns the dependency of a child field.
func (s *Section) Dependency(childID string) (Dependency, bool) {
	return s.deps.dependencyOf(childID)
}

// Dependencies returns every dependency, ordered by the child's position.
func (s *Section) Dependencies() []Dependency {
	out := make([]Dependency, 0, s.deps.edges())
	for _, id := range s.order {
		if dep, ok := s.deps.dependencyOf(id); ok {
			out = append(out, dep)
		}
	}
	return out
}

// Children returns the ids of the fields whose visibility depends on parentID.
func (s *Section) Children(parentID string) []string {
	return s.deps.childrenOf(parentID)
}

// IsValid reports whether every field is valid. Hidden fields are validated
// like visible ones.
func (s *Section) IsValid() bool {
	for _, id := range s.order {
		if !s.fields[id].IsValid() {
			return false
		}
	}
	return true
}

// InvalidFieldIDs returns the ids of invalid fields in display order.
func (s *Section) InvalidFieldIDs() []string {
	var out []string
	for _, id := range s.order {
		if !s.fields[id].IsValid() {
			out = append(out, id)
		}
	}
	return out
}

// CreateField appends a new field. The field starts visible.
func (s *Section) CreateField(f Field) error {
	if _, ok := s.fields[f.ID()]; ok {
		return fmt.Errorf("create field %q: %w", f.ID(), ErrDuplicateField)
	}

	f = snapshot(f)
	f.setVisible(true)
	s.fields[f.ID()] = f
	s.order = append(s.order, f.ID())
	return nil
}

// UpdateField replaces an existing field of the same type. The visibility
// of the field and of every child that depends on it is recomputed against
// the new value.
func (s *Section) UpdateField(f Field) error {
	old, ok := s.fields[f.ID()]
	if !ok {
		return fmt.Errorf("update field %q: %w", f.ID(), ErrNotFound)
	}
	if old.Type() != f.Type() {
		return fmt.Errorf("update field %q from %s to %s: %w", f.ID(), old.Type(), f.Type(), ErrTypeMismatch)
	}
	f = snapshot(f)

	lookup := func(id string) (Field, bool) {
		if id == f.ID() {
			return f, true
		}
		return s.stored(id)
	}

	plan := make(map[string]bool)
	for _, childID := range s.deps.childrenOf(f.ID()) {
		if _, ok := s.fields[childID]; !ok {
			return fmt.Errorf("update field %q: child %q is missing: %w", f.ID(), childID, ErrInvariantViolation)
		}
		visible, err := s.visibilityOf(childID, lookup)
		if err != nil {
			return fmt.Errorf("update field %q: %w", f.ID(), err)
		}
		plan[childID] = visible
	}
	self, err := s.visibilityOf(f.ID(), lookup)
	if err != nil {
		return fmt.Errorf("update field %q: %w", f.ID(), err)
	}

	s.fields[f.ID()] = f
	f.setVisible(self)
	for childID, visible := range plan {
		s.fields[childID].setVisible(visible)
	}
	return nil
}

// CreateOrUpdateField creates the field if its id is new and updates it otherwise.
// It reports whether the field was created.
func (s *Section) CreateOrUpdateField(f Field) (created bool, err error) {
	if _, ok := s.fields[f.ID()]; !ok {
		return true, s.CreateField(f)
	}
	return false, s.UpdateField(f)
}

// DeleteField removes a field and every dependency that names it. Children
// of the deleted field become visible. Deleting a missing field is a no-op.
func (s *Section) DeleteField(id string) {
	s.CascadeDeleteDependencies(id)
	delete(s.fields, id)
	s.order = slices.DeleteFunc(s.order, func(fid string) bool { return fid == id })
}

// CreateDependency makes dep.ChildID visible only while dep.ParentID holds
// dep.ParentValue. A child may depend on one parent only; a new dependency
// on the same parent replaces the previous trigger value.
func (s *Section) CreateDependency(dep Dependency) error {
	child, ok := s.fields[dep.ChildID]
	if !ok {
		return fmt.Errorf("create dependency %q: child field %q: %w", dep.ID, dep.ChildID, ErrNotFound)
	}
	parent, ok := s.fields[dep.ParentID]
	if !ok {
		return fmt.Errorf("create dependency %q: parent field %q: %w", dep.ID, dep.ParentID, ErrNotFound)
	}
	if old, ok := s.deps.dependencyOf(dep.ChildID); ok && old.ParentID != dep.ParentID {
		return fmt.Errorf("create dependency %q: field %q already depends on %q: %w",
			dep.ID, dep.ChildID, old.ParentID, ErrConflict)
	}

	s.deps.insertEdge(dep)
	child.setVisible(dep.EqualsParentValue(parent.Value()))
	return nil
}

// DeleteDependency removes dep and makes its child visible. A nil dep, or
// one that is not currently registered, is a no-op.
func (s *Section) DeleteDependency(dep *Dependency) {
	if dep == nil {
		return
	}
	current, ok := s.deps.dependencyOf(dep.ChildID)
	if !ok || current.ParentID != dep.ParentID {
		return
	}
	s.removeDependency(dep.ChildID)
}

// ListDependencies returns the dependencies that involve fieldID: its own
// dependency as a child first, then the dependencies of its children.
// It does not modify the section.
func (s *Section) ListDependencies(fieldID string) []Dependency {
	var out []Dependency
	if dep, ok := s.deps.dependencyOf(fieldID); ok {
		out = append(out, dep)
	}
	for _, childID := range s.deps.childrenOf(fieldID) {
		if childID == fieldID {
			continue
		}
		if dep, ok := s.deps.dependencyOf(childID); ok {
			out = append(out, dep)
		}
	}
	return out
}

// CascadeDeleteDependencies deletes every dependency that involves fieldID,
// as child or as parent, and returns them. Affected children become visible.
func (s *Section) CascadeDeleteDependencies(fieldID string) []Dependency {
	deps := s.ListDependencies(fieldID)
	for _, dep := range deps {
		s.removeDependency(dep.ChildID)
	}
	return deps
}

// MoveField moves a field to index in the display order. The index is
// clamped to the valid range. Visibility and validity are unaffected.
func (s *Section) MoveField(id string, index int) error {
	from := slices.Index(s.order, id)
	if from < 0 {
		return fmt.Errorf("move field %q: %w", id, ErrNotFound)
	}
	index = max(0, min(index, len(s.order)-1))

	s.order = slices.Delete(s.order, from, from+1)
	s.order = slices.Insert(s.order, index, id)
	return nil
}

// DuplicateField copies a field under a fresh id and inserts the copy right
// after the original. The copy has no dependencies.
func (s *Section) DuplicateField(id string) (Field, error) {
	at := slices.Index(s.order, id)
	if at < 0 {
		return nil, fmt.Errorf("duplicate field %q: %w", id, ErrNotFound)
	}

	newID := s.ids.New()
	if _, ok := s.fields[newID]; ok {
		return nil, fmt.Errorf("duplicate field %q as %q: %w", id, newID, ErrDuplicateField)
	}

	dup := s.fields[id].Duplicate(newID)
	dup.setVisible(true)
	s.fields[newID] = dup
	s.order = slices.Insert(s.order, at+1, newID)
	return snapshot(dup), nil
}

// Verify checks every structural invariant of the section and returns an
// error wrapping ErrInvariantViolation for the first one that does not hold.
func (s *Section) Verify() error {
	if len(s.order) != len(s.fields) {
		return fmt.Errorf("section %q: %d ordered ids for %d fields: %w", s.id, len(s.order), len(s.fields), ErrInvariantViolation)
	}
	for i, id := range s.order {
		if _, ok := s.fields[id]; !ok {
			return fmt.Errorf("section %q: ordered id %q has no field: %w", s.id, id, ErrInvariantViolation)
		}
		if slices.Index(s.order, id) != i {
			return fmt.Errorf("section %q: field %q is ordered twice: %w", s.id, id, ErrInvariantViolation)
		}
	}

	if err := s.deps.verify(); err != nil {
		return fmt.Errorf("section %q: %w", s.id, err)
	}
	for childID, dep := range s.deps.children {
		if _, ok := s.fields[childID]; !ok {
			return fmt.Errorf("section %q: dependency of missing field %q: %w", s.id, childID, ErrInvariantViolation)
		}
		if _, ok := s.fields[dep.ParentID]; !ok {
			return fmt.Errorf("section %q: dependency on missing field %q: %w", s.id, dep.ParentID, ErrInvariantViolation)
		}
	}

	for _, id := range s.order {
		want, err := s.visibilityOf(id, s.stored)
		if err != nil {
			return fmt.Errorf("section %q: %w", s.id, err)
		}
		if s.fields[id].Visible() != want {
			return fmt.Errorf("section %q: field %q has stale visibility: %w", s.id, id, ErrInvariantViolation)
		}
	}
	return nil
}

// removeDependency removes the edge of childID and makes the child visible.
func (s *Section) removeDependency(childID string) {
	if _, ok := s.deps.removeEdge(childID); !ok {
		return
	}
	if child, ok := s.fields[childID]; ok {
		child.setVisible(true)
	}
}

// visibilityOf computes the visibility of id, resolving fields through lookup.
func (s *Section) visibilityOf(id string, lookup func(string) (Field, bool)) (bool, error) {
	dep, ok := s.deps.dependencyOf(id)
	if !ok {
		return true, nil
	}
	parent, ok := lookup(dep.ParentID)
	if !ok {
		return false, fmt.Errorf("field %q depends on missing field %q: %w", id, dep.ParentID, ErrInvariantViolation)
	}
	return dep.EqualsParentValue(parent.Value()), nil
}
