package form

import (
	"fmt"
	"slices"
	"time"
)

// Form is an ordered collection of sections.
type Form struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	sections []*Section
}

// New creates an empty form.
func New(id, name string) *Form {
	return &Form{ID: id, Name: name}
}

// Sections returns the sections in display order.
func (f *Form) Sections() []*Section {
	return slices.Clone(f.sections)
}

// Section returns the section with the given id.
func (f *Form) Section(id string) (*Section, bool) {
	i := f.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return f.sections[i], true
}

// AddSection appends a section.
func (f *Form) AddSection(s *Section) error {
	if f.indexOf(s.ID()) >= 0 {
		return fmt.Errorf("add section %q: %w", s.ID(), ErrDuplicateSection)
	}
	f.sections = append(f.sections, s)
	return nil
}

// RemoveSection removes a section. Removing a missing section is a no-op.
func (f *Form) RemoveSection(id string) {
	f.sections = slices.DeleteFunc(f.sections, func(s *Section) bool { return s.ID() == id })
}

// MoveSection moves a section to index, clamped to the valid range.
func (f *Form) MoveSection(id string, index int) error {
	from := f.indexOf(id)
	if from < 0 {
		return fmt.Errorf("move section %q: %w", id, ErrNotFound)
	}
	s := f.sections[from]
	index = max(0, min(index, len(f.sections)-1))

	f.sections = slices.Delete(f.sections, from, from+1)
	f.sections = slices.Insert(f.sections, index, s)
	return nil
}

// IsValid reports whether every section is valid.
func (f *Form) IsValid() bool {
	for _, s := range f.sections {
		if !s.IsValid() {
			return false
		}
	}
	return true
}

// InvalidFieldIDs returns the invalid field ids keyed by section id.
// Sections without invalid fields are omitted.
func (f *Form) InvalidFieldIDs() map[string][]string {
	out := make(map[string][]string)
	for _, s := range f.sections {
		if ids := s.InvalidFieldIDs(); len(ids) > 0 {
			out[s.ID()] = ids
		}
	}
	return out
}

// Verify checks the invariants of every section.
func (f *Form) Verify() error {
	for _, s := range f.sections {
		if err := s.Verify(); err != nil {
			return fmt.Errorf("form %q: %w", f.ID, err)
		}
	}
	return nil
}

func (f *Form) indexOf(id string) int {
	return slices.IndexFunc(f.sections, func(s *Section) bool { return s.ID() == id })
}
