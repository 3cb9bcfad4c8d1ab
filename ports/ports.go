// Package ports defines the contracts between the form service and its
// infrastructure. Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/formgate/domain/form"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers for forms and duplicated fields.
type IDGenerator interface {
	New() string
}

// Hasher hashes and checks secrets such as the admin API key.
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Storage Ports
// -----------------------------------------------------------------------------

// FormSummary is the listing view of a stored form.
type FormSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Sections  int       `json:"sections"`
	Fields    int       `json:"fields"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FormStore persists whole forms. Get and Delete return an error wrapping
// form.ErrNotFound when the form does not exist.
type FormStore interface {
	Get(ctx context.Context, id string) (*form.Form, error)

	// List returns summaries ordered by creation time, oldest first. It
	// returns an empty, non-nil slice when there are no forms.
	List(ctx context.Context) ([]FormSummary, error)

	// Save inserts or replaces the form with all of its sections.
	Save(ctx context.Context, f *form.Form) error

	Delete(ctx context.Context, id string) error

	Close() error
}

// Summarize builds the listing view of a form.
func Summarize(f *form.Form) FormSummary {
	s := FormSummary{
		ID:        f.ID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	for _, sec := range f.Sections() {
		s.Sections++
		s.Fields += sec.Len()
	}
	return s
}

// -----------------------------------------------------------------------------
// Event Ports
// -----------------------------------------------------------------------------

// EventType names a change to a form.
type EventType string

const (
	EventFormCreated       EventType = "form.created"
	EventFormDeleted       EventType = "form.deleted"
	EventSectionAdded      EventType = "section.added"
	EventSectionRemoved    EventType = "section.removed"
	EventSectionMoved      EventType = "section.moved"
	EventFieldCreated      EventType = "field.created"
	EventFieldUpdated      EventType = "field.updated"
	EventFieldDeleted      EventType = "field.deleted"
	EventFieldMoved        EventType = "field.moved"
	EventFieldDuplicated   EventType = "field.duplicated"
	EventDependencyCreated EventType = "dependency.created"
	EventDependencyDeleted EventType = "dependency.deleted"
)

// FormEvent describes a committed change. SectionID and FieldID are empty
// when they do not apply.
type FormEvent struct {
	Type      EventType `json:"type"`
	FormID    string    `json:"formId"`
	SectionID string    `json:"sectionId,omitempty"`
	FieldID   string    `json:"fieldId,omitempty"`
	At        time.Time `json:"at"`
}

// EventPublisher announces committed form changes.
type EventPublisher interface {
	Publish(ctx context.Context, e FormEvent) error
	Close() error
}
