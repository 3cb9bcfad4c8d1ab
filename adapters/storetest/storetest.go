// Package storetest holds behavior tests shared by every ports.FormStore
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/domain/validator"
	"github.com/artpar/formgate/ports"
)

// SampleForm builds a form with two sections that exercises every field kind
// and a dependency.
func SampleForm(t *testing.T, id string, created time.Time) *form.Form {
	t.Helper()
	f := form.New(id, "Form "+id)
	f.CreatedAt = created
	f.UpdatedAt = created

	contact := form.NewSection("contact")
	require.NoError(t, contact.CreateField(form.NewText("name", form.Ptr("Ada"), true,
		validator.NewTextLength(validator.Bound(1), validator.Bound(64)))))
	require.NoError(t, contact.CreateField(form.NewEmail("email", nil, true)))
	require.NoError(t, contact.CreateField(form.NewBoolean("newsletter", form.Ptr(false), false)))
	require.NoError(t, contact.CreateField(form.NewSingleSelect("frequency", form.Ptr("weekly"), false,
		[]string{"daily", "weekly"})))
	require.NoError(t, contact.CreateDependency(form.NewDependency("dep-1", "frequency", "newsletter", true)))

	uploads := form.NewSection("uploads")
	require.NoError(t, uploads.CreateField(form.NewFile("cv", []string{"s3://cv.pdf"}, false,
		validator.NewArraySize[string](nil, validator.Bound(2)))))

	require.NoError(t, f.AddSection(contact))
	require.NoError(t, f.AddSection(uploads))
	return f
}

// Run executes the shared FormStore tests. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) ports.FormStore) {
	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("Replace", func(t *testing.T) { testReplace(t, newStore(t)) })
	t.Run("List", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("NoAliasing", func(t *testing.T) { testNoAliasing(t, newStore(t)) })
}

func testSaveAndGet(t *testing.T, store ports.FormStore) {
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	want := SampleForm(t, "f1", created)
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx, "f1")
	require.NoError(t, err)
	require.NoError(t, got.Verify())

	assert.Equal(t, want.Name, got.Name)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Sections(), 2)

	for i, ws := range want.Sections() {
		gs := got.Sections()[i]
		assert.Equal(t, ws.ID(), gs.ID())
		assert.Equal(t, ws.FieldOrder(), gs.FieldOrder())
		assert.Equal(t, ws.Dependencies(), gs.Dependencies())
		for _, wf := range ws.Fields() {
			gf, ok := gs.Field(wf.ID())
			require.True(t, ok, wf.ID())
			assert.Equal(t, wf.Type(), gf.Type(), wf.ID())
			assert.Equal(t, wf.Value(), gf.Value(), wf.ID())
			assert.Equal(t, wf.Required(), gf.Required(), wf.ID())
			assert.Equal(t, wf.Visible(), gf.Visible(), wf.ID())
			assert.Equal(t, wf.IsValid(), gf.IsValid(), wf.ID())
		}
	}
	assert.Equal(t, want.IsValid(), got.IsValid())
}

func testGetMissing(t *testing.T, store ports.FormStore) {
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, form.ErrNotFound)
}

func testReplace(t *testing.T, store ports.FormStore) {
	ctx := context.Background()
	f := SampleForm(t, "f1", time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, f))

	f.Name = "Renamed"
	f.RemoveSection("uploads")
	contact, _ := f.Section("contact")
	contact.DeleteField("newsletter")
	require.NoError(t, store.Save(ctx, f))

	got, err := store.Get(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	require.Len(t, got.Sections(), 1)

	gs := got.Sections()[0]
	assert.Equal(t, []string{"name", "email", "frequency"}, gs.FieldOrder())
	assert.Empty(t, gs.Dependencies())
}

func testList(t *testing.T, store ports.FormStore) {
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, SampleForm(t, "b", base.Add(time.Hour))))
	require.NoError(t, store.Save(ctx, SampleForm(t, "a", base)))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, 2, list[0].Sections)
	assert.Equal(t, 5, list[0].Fields)
	assert.Equal(t, "Form a", list[0].Name)
}

func testListEmpty(t *testing.T, store ports.FormStore) {
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list, "an empty store lists as [] rather than null")
	assert.Empty(t, list)
}

func testDelete(t *testing.T, store ports.FormStore) {
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, SampleForm(t, "f1", time.Now().UTC())))

	require.NoError(t, store.Delete(ctx, "f1"))
	_, err := store.Get(ctx, "f1")
	assert.ErrorIs(t, err, form.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "f1"), form.ErrNotFound)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testNoAliasing(t *testing.T, store ports.FormStore) {
	ctx := context.Background()
	f := SampleForm(t, "f1", time.Now().UTC())
	require.NoError(t, store.Save(ctx, f))

	contact, _ := f.Section("contact")
	contact.DeleteField("name")

	got, err := store.Get(ctx, "f1")
	require.NoError(t, err)
	gs, _ := got.Section("contact")
	_, ok := gs.Field("name")
	assert.True(t, ok, "mutating a saved form must not change the stored copy")
}
