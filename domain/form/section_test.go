package form_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/domain/validator"
)

type seqIDs struct {
	prefix string
	n      int
}

func (g *seqIDs) New() string {
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}

func newSection(t *testing.T) *form.Section {
	t.Helper()
	return form.NewSection("s1", form.WithIDGenerator(&seqIDs{prefix: "dup-"}))
}

func mustCreate(t *testing.T, s *form.Section, fields ...form.Field) {
	t.Helper()
	for _, f := range fields {
		if err := s.CreateField(f); err != nil {
			t.Fatalf("CreateField(%s) error = %v", f.ID(), err)
		}
	}
}

func mustVerify(t *testing.T, s *form.Section) {
	t.Helper()
	if err := s.Verify(); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
}

func visible(t *testing.T, s *form.Section, id string) bool {
	t.Helper()
	f, ok := s.Field(id)
	if !ok {
		t.Fatalf("field %s not found", id)
	}
	return f.Visible()
}

func TestSection_CreateField(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewText("a", nil, false), form.NewBoolean("b", nil, false))

	if got := s.FieldOrder(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("FieldOrder() = %v", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	mustVerify(t, s)
}

func TestSection_CreateField_Duplicate(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewText("a", form.Ptr("first"), false))

	err := s.CreateField(form.NewText("a", form.Ptr("second"), false))
	if !errors.Is(err, form.ErrDuplicateField) {
		t.Fatalf("CreateField() error = %v, want ErrDuplicateField", err)
	}

	f, _ := s.Field("a")
	if f.Value() != "first" {
		t.Errorf("Value() = %v, want first", f.Value())
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSection_RequiredTextScenario(t *testing.T) {
	s := newSection(t)
	tf := form.NewText("a", nil, true)
	mustCreate(t, s, tf)

	if s.IsValid() {
		t.Error("section with an empty required field should be invalid")
	}

	if err := s.UpdateField(form.NewText("a", nil, false)); err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}
	if !s.IsValid() {
		t.Error("section with an empty optional field should be valid")
	}
	if ids := s.InvalidFieldIDs(); len(ids) != 0 {
		t.Errorf("InvalidFieldIDs() = %v, want none", ids)
	}
}

// The child pass of UpdateField evaluates children against the new parent
// value. Evaluating against the value being replaced would leave children
// out of step with their parent after every update.
func TestSection_SingleSelectDependencyScenario(t *testing.T) {
	s := newSection(t)
	parent := form.NewSingleSelect("p", form.Ptr("opt1"), true, []string{"opt1", "opt2"})
	child := form.NewText("c", nil, false)
	mustCreate(t, s, parent, child)

	if err := s.CreateDependency(form.NewDependency("d1", "c", "p", "opt2")); err != nil {
		t.Fatalf("CreateDependency() error = %v", err)
	}
	if visible(t, s, "c") {
		t.Error("child should be hidden while parent is opt1")
	}

	if err := s.UpdateField(form.NewSingleSelect("p", form.Ptr("opt2"), true, []string{"opt1", "opt2"})); err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}
	if !visible(t, s, "c") {
		t.Error("child should be visible once parent is opt2")
	}

	if err := s.UpdateField(form.NewSingleSelect("p", form.Ptr("opt1"), true, []string{"opt1", "opt2"})); err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}
	if visible(t, s, "c") {
		t.Error("child should be hidden again once parent is opt1")
	}
	mustVerify(t, s)
}

func TestSection_UpdateField(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewText("a", form.Ptr("old"), false))

	if err := s.UpdateField(form.NewText("a", form.Ptr("new"), true)); err != nil {
		t.Fatalf("UpdateField() error = %v", err)
	}
	f, _ := s.Field("a")
	if f.Value() != "new" || !f.Required() {
		t.Errorf("field not replaced: value=%v required=%v", f.Value(), f.Required())
	}

	err := s.UpdateField(form.NewText("missing", nil, false))
	if !errors.Is(err, form.ErrNotFound) {
		t.Errorf("UpdateField(missing) error = %v, want ErrNotFound", err)
	}

	err = s.UpdateField(form.NewBoolean("a", nil, false))
	if !errors.Is(err, form.ErrTypeMismatch) {
		t.Errorf("UpdateField(other type) error = %v, want ErrTypeMismatch", err)
	}
	f, _ = s.Field("a")
	if f.Type() != form.FieldTypeText {
		t.Error("failed update should leave the field unchanged")
	}
}

func TestSection_CallerCannotMutateStoredFields(t *testing.T) {
	s := newSection(t)
	parent := form.NewBoolean("p", form.Ptr(false), false)
	child := form.NewText("c", nil, false)
	mustCreate(t, s, parent, child)
	if err := s.CreateDependency(form.NewDependency("d", "c", "p", true)); err != nil {
		t.Fatal(err)
	}

	parent.SetValue(true)
	child.SetRequired(true)

	stored, _ := s.Field("p")
	if stored.Value() != false {
		t.Errorf("stored parent value = %v, want false", stored.Value())
	}
	if visible(t, s, "c") {
		t.Error("child should stay hidden")
	}
	if !s.IsValid() {
		t.Error("changing the caller's child should not make the section invalid")
	}
	mustVerify(t, s)

	got, _ := s.Field("p")
	got.(*form.BooleanField).SetValue(true)
	for _, f := range s.Fields() {
		if tf, ok := f.(*form.TextField); ok {
			tf.SetValue("leak")
		}
	}
	stored, _ = s.Field("p")
	if stored.Value() != false {
		t.Errorf("stored parent value = %v after mutating a returned copy", stored.Value())
	}
	if c, _ := s.Field("c"); c.HasValue() {
		t.Error("child value leaked from Fields()")
	}
	mustVerify(t, s)

	dup, err := s.DuplicateField("c")
	if err != nil {
		t.Fatal(err)
	}
	dup.(*form.TextField).SetValue("leak")
	if stored, _ := s.Field(dup.ID()); stored.HasValue() {
		t.Error("duplicate value leaked from DuplicateField()")
	}
}

func TestSection_UpdateField_KeepsOwnVisibility(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewBoolean("p", form.Ptr(false), false), form.NewText("c", nil, false))
	if err := s.CreateDependency(form.NewDependency("d", "c", "p", true)); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateField(form.NewText("c", form.Ptr("x"), false)); err != nil {
		t.Fatal(err)
	}
	if visible(t, s, "c") {
		t.Error("replacing a hidden child should keep it hidden")
	}
	mustVerify(t, s)
}

func TestSection_CreateOrUpdateField(t *testing.T) {
	s := newSection(t)

	created, err := s.CreateOrUpdateField(form.NewText("a", nil, false))
	if err != nil || !created {
		t.Fatalf("CreateOrUpdateField() = %v, %v; want true, nil", created, err)
	}

	created, err = s.CreateOrUpdateField(form.NewText("a", form.Ptr("v"), false))
	if err != nil || created {
		t.Fatalf("CreateOrUpdateField() = %v, %v; want false, nil", created, err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSection_HiddenFieldsAreStillValidated(t *testing.T) {
	// A required child hidden by its dependency still makes the section
	// invalid. This pins the current behavior, which may not be what form
	// authors expect.
	s := newSection(t)
	mustCreate(t, s, form.NewBoolean("p", form.Ptr(false), false), form.NewText("c", nil, true))
	if err := s.CreateDependency(form.NewDependency("d", "c", "p", true)); err != nil {
		t.Fatal(err)
	}

	if visible(t, s, "c") {
		t.Fatal("child should be hidden")
	}
	if s.IsValid() {
		t.Error("hidden required field without value should still make the section invalid")
	}
	if ids := s.InvalidFieldIDs(); !slices.Equal(ids, []string{"c"}) {
		t.Errorf("InvalidFieldIDs() = %v, want [c]", ids)
	}
}

func TestSection_CreateDependency_Errors(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewBoolean("p", nil, false), form.NewText("c", nil, false))

	if err := s.CreateDependency(form.NewDependency("d", "missing", "p", true)); !errors.Is(err, form.ErrNotFound) {
		t.Errorf("missing child: error = %v, want ErrNotFound", err)
	}
	if err := s.CreateDependency(form.NewDependency("d", "c", "missing", true)); !errors.Is(err, form.ErrNotFound) {
		t.Errorf("missing parent: error = %v, want ErrNotFound", err)
	}
	if len(s.Dependencies()) != 0 {
		t.Error("failed CreateDependency should not register anything")
	}
	mustVerify(t, s)
}

func TestSection_CreateDependency_SameParentReplaces(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewBoolean("p", form.Ptr(true), false), form.NewText("c", nil, false))

	if err := s.CreateDependency(form.NewDependency("d1", "c", "p", false)); err != nil {
		t.Fatal(err)
	}
	if visible(t, s, "c") {
		t.Error("child should be hidden")
	}

	if err := s.CreateDependency(form.NewDependency("d2", "c", "p", true)); err != nil {
		t.Fatalf("re-creating on the same parent error = %v", err)
	}
	dep, ok := s.Dependency("c")
	if !ok || dep.ID != "d2" || dep.ParentValue != true {
		t.Errorf("Dependency(c) = %+v, %v; want d2 with trigger true", dep, ok)
	}
	if got := s.Children("p"); !slices.Equal(got, []string{"c"}) {
		t.Errorf("Children(p) = %v, want [c]", got)
	}
	if !visible(t, s, "c") {
		t.Error("child should be visible under the new trigger")
	}
	mustVerify(t, s)
}

func TestSection_CreateDependency_OtherParentConflicts(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s,
		form.NewBoolean("p1", form.Ptr(true), false),
		form.NewBoolean("p2", form.Ptr(true), false),
		form.NewText("c", nil, false))

	if err := s.CreateDependency(form.NewDependency("d1", "c", "p1", false)); err != nil {
		t.Fatal(err)
	}
	err := s.CreateDependency(form.NewDependency("d2", "c", "p2", true))
	if !errors.Is(err, form.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}

	dep, _ := s.Dependency("c")
	if dep.ParentID != "p1" {
		t.Errorf("ParentID = %s, want p1", dep.ParentID)
	}
	if len(s.Children("p2")) != 0 {
		t.Error("p2 should have no children")
	}
	if visible(t, s, "c") {
		t.Error("conflicting dependency should not change visibility")
	}
	mustVerify(t, s)
}

func TestSection_DeleteDependency(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewBoolean("p", form.Ptr(false), false), form.NewText("c", nil, false))
	dep := form.NewDependency("d", "c", "p", true)
	if err := s.CreateDependency(dep); err != nil {
		t.Fatal(err)
	}

	s.DeleteDependency(nil)
	stale := form.NewDependency("d", "c", "other", true)
	s.DeleteDependency(&stale)
	if _, ok := s.Dependency("c"); !ok {
		t.Fatal("nil or stale dependency should be a no-op")
	}

	s.DeleteDependency(&dep)
	if _, ok := s.Dependency("c"); ok {
		t.Error("dependency should be removed")
	}
	if !visible(t, s, "c") {
		t.Error("child should become visible")
	}
	mustVerify(t, s)

	s.DeleteDependency(&dep)
	mustVerify(t, s)
}

func TestSection_ListDependencies(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s,
		form.NewBoolean("root", form.Ptr(true), false),
		form.NewBoolean("mid", form.Ptr(true), false),
		form.NewText("leaf1", nil, false),
		form.NewText("leaf2", nil, false))

	for _, d := range []form.Dependency{
		form.NewDependency("d-mid", "mid", "root", true),
		form.NewDependency("d-l1", "leaf1", "mid", true),
		form.NewDependency("d-l2", "leaf2", "mid", false),
	} {
		if err := s.CreateDependency(d); err != nil {
			t.Fatal(err)
		}
	}

	var ids []string
	for _, d := range s.ListDependencies("mid") {
		ids = append(ids, d.ID)
	}
	if !slices.Equal(ids, []string{"d-mid", "d-l1", "d-l2"}) {
		t.Errorf("ListDependencies(mid) = %v", ids)
	}
	if len(s.Dependencies()) != 3 {
		t.Error("ListDependencies should not modify the section")
	}
	if got := s.ListDependencies("none"); len(got) != 0 {
		t.Errorf("ListDependencies(none) = %v, want empty", got)
	}
}

func TestSection_CascadeDeleteDependencies(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s,
		form.NewBoolean("root", form.Ptr(false), false),
		form.NewBoolean("mid", form.Ptr(false), false),
		form.NewText("leaf", nil, false))
	if err := s.CreateDependency(form.NewDependency("d1", "mid", "root", true)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateDependency(form.NewDependency("d2", "leaf", "mid", true)); err != nil {
		t.Fatal(err)
	}

	removed := s.CascadeDeleteDependencies("mid")
	if len(removed) != 2 {
		t.Fatalf("removed %d dependencies, want 2", len(removed))
	}
	if len(s.Dependencies()) != 0 {
		t.Errorf("Dependencies() = %v, want none", s.Dependencies())
	}
	if !visible(t, s, "mid") || !visible(t, s, "leaf") {
		t.Error("released fields should be visible")
	}
	mustVerify(t, s)
}

func TestSection_DeleteField(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s,
		form.NewBoolean("p", form.Ptr(false), false),
		form.NewText("c", nil, false),
		form.NewText("other", nil, false))
	if err := s.CreateDependency(form.NewDependency("d", "c", "p", true)); err != nil {
		t.Fatal(err)
	}

	s.DeleteField("p")
	if _, ok := s.Field("p"); ok {
		t.Error("field should be deleted")
	}
	if !visible(t, s, "c") {
		t.Error("child of deleted parent should become visible")
	}
	if len(s.Dependencies()) != 0 {
		t.Error("dependency on deleted field should be removed")
	}
	mustVerify(t, s)

	before := s.FieldOrder()
	s.DeleteField("p")
	s.DeleteField("never-existed")
	if !slices.Equal(s.FieldOrder(), before) {
		t.Error("deleting a missing field should be a no-op")
	}
	mustVerify(t, s)
}

func TestSection_DeleteField_Child(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewBoolean("p", form.Ptr(false), false), form.NewText("c", nil, false))
	if err := s.CreateDependency(form.NewDependency("d", "c", "p", true)); err != nil {
		t.Fatal(err)
	}

	s.DeleteField("c")
	if got := s.Children("p"); len(got) != 0 {
		t.Errorf("Children(p) = %v, want none", got)
	}
	mustVerify(t, s)
}

func TestSection_MoveField(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		index int
		want  []string
	}{
		{"to front", "c", 0, []string{"c", "a", "b"}},
		{"to back", "a", 2, []string{"b", "c", "a"}},
		{"same place", "b", 1, []string{"a", "b", "c"}},
		{"negative clamps", "c", -5, []string{"c", "a", "b"}},
		{"past end clamps", "a", 99, []string{"b", "c", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSection(t)
			mustCreate(t, s, form.NewText("a", nil, true), form.NewText("b", nil, false), form.NewText("c", nil, false))
			validBefore := s.IsValid()

			if err := s.MoveField(tt.id, tt.index); err != nil {
				t.Fatalf("MoveField() error = %v", err)
			}
			if got := s.FieldOrder(); !slices.Equal(got, tt.want) {
				t.Errorf("FieldOrder() = %v, want %v", got, tt.want)
			}
			if s.IsValid() != validBefore {
				t.Error("moving should not change validity")
			}
			mustVerify(t, s)
		})
	}

	t.Run("dependencies unaffected", func(t *testing.T) {
		s := newSection(t)
		mustCreate(t, s,
			form.NewBoolean("p", form.Ptr(false), false),
			form.NewText("a", nil, false),
			form.NewText("b", nil, false))
		for _, dep := range []form.Dependency{
			form.NewDependency("d1", "a", "p", true),
			form.NewDependency("d2", "b", "p", false),
		} {
			if err := s.CreateDependency(dep); err != nil {
				t.Fatal(err)
			}
		}
		deps := func() map[string]form.Dependency {
			out := make(map[string]form.Dependency)
			for _, d := range s.Dependencies() {
				out[d.ChildID] = d
			}
			return out
		}
		depsBefore := deps()
		childrenBefore := s.Children("p")

		if err := s.MoveField("p", 2); err != nil {
			t.Fatal(err)
		}
		if err := s.MoveField("b", 0); err != nil {
			t.Fatal(err)
		}

		if got := s.FieldOrder(); !slices.Equal(got, []string{"b", "a", "p"}) {
			t.Errorf("FieldOrder() = %v", got)
		}
		if got := deps(); len(got) != len(depsBefore) || got["a"] != depsBefore["a"] || got["b"] != depsBefore["b"] {
			t.Errorf("Dependencies() = %v, want %v", got, depsBefore)
		}
		if got := s.Children("p"); !slices.Equal(got, childrenBefore) {
			t.Errorf("Children(p) = %v, want %v", got, childrenBefore)
		}
		if visible(t, s, "a") || !visible(t, s, "b") {
			t.Error("moving should not change visibility")
		}
		mustVerify(t, s)
	})

	s := newSection(t)
	if err := s.MoveField("missing", 0); !errors.Is(err, form.ErrNotFound) {
		t.Errorf("MoveField(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSection_DuplicateField(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s,
		form.NewBoolean("p", form.Ptr(false), false),
		form.NewText("c", form.Ptr("hello"), true, validator.NewTextContains("ell")),
		form.NewText("z", nil, false))
	if err := s.CreateDependency(form.NewDependency("d", "c", "p", true)); err != nil {
		t.Fatal(err)
	}

	dup, err := s.DuplicateField("c")
	if err != nil {
		t.Fatalf("DuplicateField() error = %v", err)
	}
	if dup.ID() != "dup-1" {
		t.Errorf("ID() = %s, want dup-1", dup.ID())
	}
	if got := s.FieldOrder(); !slices.Equal(got, []string{"p", "c", "dup-1", "z"}) {
		t.Errorf("FieldOrder() = %v", got)
	}

	src, _ := s.Field("c")
	if dup.Value() != src.Value() || dup.Required() != src.Required() || dup.IsValid() != src.IsValid() {
		t.Error("duplicate should match source value, required flag and validity")
	}
	if !dup.Visible() {
		t.Error("duplicate should be visible even when the source is hidden")
	}
	if _, ok := s.Dependency("dup-1"); ok {
		t.Error("duplicate should have no dependency")
	}
	mustVerify(t, s)

	if _, err := s.DuplicateField("missing"); !errors.Is(err, form.ErrNotFound) {
		t.Errorf("DuplicateField(missing) error = %v, want ErrNotFound", err)
	}
}

type fixedIDs string

func (f fixedIDs) New() string { return string(f) }

func TestSection_DuplicateField_IDCollision(t *testing.T) {
	s := form.NewSection("s", form.WithIDGenerator(fixedIDs("b")))
	mustCreate(t, s, form.NewText("a", nil, false), form.NewText("b", nil, false))

	if _, err := s.DuplicateField("a"); !errors.Is(err, form.ErrDuplicateField) {
		t.Fatalf("error = %v, want ErrDuplicateField", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSection_SelfDependency(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewBoolean("b", form.Ptr(false), false))

	if err := s.CreateDependency(form.NewDependency("d", "b", "b", true)); err != nil {
		t.Fatal(err)
	}
	if visible(t, s, "b") {
		t.Error("self-dependent field should be hidden while its value differs")
	}
	if err := s.UpdateField(form.NewBoolean("b", form.Ptr(true), false)); err != nil {
		t.Fatal(err)
	}
	if !visible(t, s, "b") {
		t.Error("self-dependent field should be visible once its value matches")
	}
	mustVerify(t, s)

	s.DeleteField("b")
	mustVerify(t, s)
}

func TestSection_CycleDoesNotPropagate(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s, form.NewBoolean("a", form.Ptr(true), false), form.NewBoolean("b", form.Ptr(true), false))
	if err := s.CreateDependency(form.NewDependency("d1", "b", "a", true)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateDependency(form.NewDependency("d2", "a", "b", true)); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateField(form.NewBoolean("a", form.Ptr(false), false)); err != nil {
		t.Fatal(err)
	}
	if visible(t, s, "b") {
		t.Error("b should be hidden")
	}
	if !visible(t, s, "a") {
		t.Error("a should stay visible since b still holds true")
	}
	mustVerify(t, s)
}

func TestSection_ChildIsNotTransitivelyHidden(t *testing.T) {
	s := newSection(t)
	mustCreate(t, s,
		form.NewBoolean("a", form.Ptr(false), false),
		form.NewBoolean("b", form.Ptr(true), false),
		form.NewText("c", nil, false))
	if err := s.CreateDependency(form.NewDependency("d1", "b", "a", true)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateDependency(form.NewDependency("d2", "c", "b", true)); err != nil {
		t.Fatal(err)
	}

	if visible(t, s, "b") {
		t.Error("b should be hidden")
	}
	if !visible(t, s, "c") {
		t.Error("c depends only on b's value, not on b's visibility")
	}
}

// TestSection_RandomOperations applies random operation sequences and checks
// the structural invariants after every step.
func TestSection_RandomOperations(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	ids := []string{"f0", "f1", "f2", "f3", "f4", "f5"}

	for round := 0; round < 50; round++ {
		s := form.NewSection("s", form.WithIDGenerator(&seqIDs{prefix: fmt.Sprintf("r%d-", round)}))

		for step := 0; step < 200; step++ {
			existing := s.FieldOrder()
			pick := func() string {
				if len(existing) > 0 && rng.IntN(4) > 0 {
					return existing[rng.IntN(len(existing))]
				}
				return ids[rng.IntN(len(ids))]
			}

			switch rng.IntN(8) {
			case 0:
				_ = s.CreateField(form.NewBoolean(pick(), randBool(rng), rng.IntN(2) == 0))
			case 1:
				id := pick()
				if f, ok := s.Field(id); ok && f.Type() == form.FieldTypeBoolean {
					if err := s.UpdateField(form.NewBoolean(id, randBool(rng), false)); err != nil {
						t.Fatalf("round %d step %d: UpdateField() error = %v", round, step, err)
					}
				}
			case 2:
				s.DeleteField(pick())
			case 3, 4:
				_ = s.CreateDependency(form.NewDependency("d", pick(), pick(), rng.IntN(2) == 0))
			case 5:
				if dep, ok := s.Dependency(pick()); ok {
					s.DeleteDependency(&dep)
				}
			case 6:
				_ = s.MoveField(pick(), rng.IntN(8)-1)
			case 7:
				if len(existing) < 12 {
					_, _ = s.DuplicateField(pick())
				}
			}

			if err := s.Verify(); err != nil {
				t.Fatalf("round %d step %d: Verify() error = %v", round, step, err)
			}
			checkInverse(t, s)
		}
	}
}

func checkInverse(t *testing.T, s *form.Section) {
	t.Helper()
	for _, dep := range s.Dependencies() {
		if !slices.Contains(s.Children(dep.ParentID), dep.ChildID) {
			t.Fatalf("child %s missing from Children(%s)", dep.ChildID, dep.ParentID)
		}
	}
	for _, id := range s.FieldOrder() {
		for _, child := range s.Children(id) {
			dep, ok := s.Dependency(child)
			if !ok || dep.ParentID != id {
				t.Fatalf("Children(%s) lists %s without a matching dependency", id, child)
			}
		}
	}
}

func randBool(rng *rand.Rand) *bool {
	if rng.IntN(3) == 0 {
		return nil
	}
	return form.Ptr(rng.IntN(2) == 0)
}
