// Package memory provides in-memory storage for forms.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/pkg/formjson"
	"github.com/artpar/formgate/ports"
)

// FormStore keeps encoded form documents in a map. Forms are encoded on Save
// and decoded on Get, so callers never share state with the store.
type FormStore struct {
	mu      sync.RWMutex
	docs    map[string][]byte
	summary map[string]ports.FormSummary
	opts    []form.SectionOption
}

// NewFormStore creates an empty store. opts are applied to every section
// decoded by Get.
func NewFormStore(opts ...form.SectionOption) *FormStore {
	return &FormStore{
		docs:    make(map[string][]byte),
		summary: make(map[string]ports.FormSummary),
		opts:    opts,
	}
}

// Get decodes the stored form.
func (s *FormStore) Get(ctx context.Context, id string) (*form.Form, error) {
	s.mu.RLock()
	data, ok := s.docs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("form %q: %w", id, form.ErrNotFound)
	}
	return formjson.UnmarshalForm(data, s.opts...)
}

// List returns all summaries, oldest first.
func (s *FormStore) List(ctx context.Context) ([]ports.FormSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.FormSummary, 0, len(s.summary))
	for _, sum := range s.summary {
		out = append(out, sum)
	}
	slices.SortFunc(out, func(a, b ports.FormSummary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Save encodes and stores the form, replacing any previous version.
func (s *FormStore) Save(ctx context.Context, f *form.Form) error {
	data, err := formjson.MarshalForm(f)
	if err != nil {
		return fmt.Errorf("save form %q: %w", f.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[f.ID] = data
	s.summary[f.ID] = ports.Summarize(f)
	return nil
}

// Delete removes the form.
func (s *FormStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("form %q: %w", id, form.ErrNotFound)
	}
	delete(s.docs, id)
	delete(s.summary, id)
	return nil
}

// Close is a no-op.
func (s *FormStore) Close() error { return nil }

var _ ports.FormStore = (*FormStore)(nil)
