package form

import (
	"errors"
	"slices"
	"testing"
)

// corrupt removes a field behind the graph's back, leaving its edges dangling.
func corrupt(s *Section, id string) {
	delete(s.fields, id)
	s.order = slices.DeleteFunc(s.order, func(fid string) bool { return fid == id })
}

func linkedSection(t *testing.T) *Section {
	t.Helper()
	s := NewSection("s")
	for _, f := range []Field{
		NewBoolean("p", Ptr(false), false),
		NewText("c1", Ptr("one"), false),
		NewText("c2", Ptr("two"), false),
	} {
		if err := s.CreateField(f); err != nil {
			t.Fatal(err)
		}
	}
	for _, dep := range []Dependency{
		NewDependency("d1", "c1", "p", true),
		NewDependency("d2", "c2", "p", true),
	} {
		if err := s.CreateDependency(dep); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestUpdateField_MissingChildAborts(t *testing.T) {
	s := linkedSection(t)
	corrupt(s, "c2")

	err := s.UpdateField(NewBoolean("p", Ptr(true), false))
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("UpdateField() error = %v, want ErrInvariantViolation", err)
	}

	if got := s.fields["p"].Value(); got != false {
		t.Errorf("parent value = %v, want false", got)
	}
	if s.fields["c1"].Visible() {
		t.Error("c1 visibility changed by a failed update")
	}
	if !errors.Is(s.Verify(), ErrInvariantViolation) {
		t.Error("Verify() should report the dangling edge")
	}
}

func TestUpdateField_MissingParentAborts(t *testing.T) {
	s := linkedSection(t)
	corrupt(s, "p")

	err := s.UpdateField(NewText("c1", Ptr("changed"), true))
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("UpdateField() error = %v, want ErrInvariantViolation", err)
	}

	c1 := s.fields["c1"]
	if c1.Value() != "one" || c1.Required() {
		t.Errorf("c1 = %v required=%v, want unchanged", c1.Value(), c1.Required())
	}
	if c1.Visible() {
		t.Error("c1 visibility changed by a failed update")
	}
}

func TestVerify_DetectsStaleVisibility(t *testing.T) {
	s := linkedSection(t)
	s.fields["c1"].setVisible(true)

	if err := s.Verify(); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("Verify() error = %v, want ErrInvariantViolation", err)
	}
}
