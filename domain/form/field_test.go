package form_test

import (
	"slices"
	"testing"

	"github.com/artpar/formgate/domain/form"
	"github.com/artpar/formgate/domain/validator"
)

func TestFieldType_IsValid(t *testing.T) {
	for _, ft := range []form.FieldType{
		form.FieldTypeText, form.FieldTypeEmail, form.FieldTypeSingleSelect,
		form.FieldTypeBoolean, form.FieldTypeFile,
	} {
		if !ft.IsValid() {
			t.Errorf("%s should be valid", ft)
		}
	}
	if form.FieldType("number").IsValid() {
		t.Error("number should not be valid")
	}
}

func TestTextField_Required(t *testing.T) {
	tf := form.NewText("a", nil, true)
	if tf.IsValid() {
		t.Error("required field without a value should be invalid")
	}

	tf.SetRequired(false)
	if !tf.IsValid() {
		t.Error("optional field without a value should be valid")
	}
}

func TestTextField_Validators(t *testing.T) {
	tf := form.NewText("a", form.Ptr("Testing!"), true,
		validator.NewTextLength(validator.Bound(3), validator.Bound(5)))
	if tf.IsValid() {
		t.Error("value longer than max should be invalid")
	}

	tf.SetValidators(validator.NewTextLength(validator.Bound(3), validator.Bound(20)))
	if !tf.IsValid() {
		t.Error("value within bounds should be valid")
	}

	tf.SetValidators(validator.NewTextLength(validator.Bound(3), nil))
	if !tf.IsValid() {
		t.Error("value above min with no max should be valid")
	}

	tf.SetValidators(validator.NewTextLength(nil, validator.Bound(5)))
	if tf.IsValid() {
		t.Error("value above max with no min should be invalid")
	}
}

func TestTextField_AbsentValueSkipsValidators(t *testing.T) {
	tf := form.NewText("a", nil, false, validator.NewTextContains("x"))
	if !tf.IsValid() {
		t.Error("validators should not run against an absent value")
	}

	tf.SetValue("abc")
	if tf.IsValid() {
		t.Error("present value failing a validator should be invalid")
	}

	tf.ClearValue()
	if tf.HasValue() || tf.Value() != nil {
		t.Error("ClearValue should remove the value")
	}
}

func TestTextField_AllValidatorsMustPass(t *testing.T) {
	tf := form.NewText("a", form.Ptr("hello world"), false,
		validator.NewTextContains("hello"),
		validator.NewTextLength(nil, validator.Bound(5)))
	if tf.IsValid() {
		t.Error("one failing validator should make the field invalid")
	}
}

func TestEmailField(t *testing.T) {
	ef := form.NewEmail("e", form.Ptr("user@example.com"), true)
	if !ef.IsValid() {
		t.Error("valid email should be valid")
	}
	ef.SetValue("nope")
	if ef.IsValid() {
		t.Error("invalid email should be invalid")
	}
	if ef.Type() != form.FieldTypeEmail {
		t.Errorf("Type() = %s", ef.Type())
	}
}

func TestBooleanField(t *testing.T) {
	bf := form.NewBoolean("b", form.Ptr(true), true)
	if !bf.IsValid() {
		t.Error("true should be valid")
	}

	bf.SetValue(false)
	if !bf.IsValid() {
		t.Error("false should be valid")
	}
	if bf.Value() != false {
		t.Errorf("Value() = %v, want false", bf.Value())
	}
}

func TestSingleSelectField(t *testing.T) {
	opts := []string{"opt1", "opt2"}
	sf := form.NewSingleSelect("s", form.Ptr("opt1"), true, opts)
	opts[0] = "mutated"

	if !sf.IsValid() {
		t.Error("possible value should be valid")
	}
	sf.SetValue("opt3")
	if sf.IsValid() {
		t.Error("value outside possible values should be invalid")
	}
	if got := sf.PossibleValues(); !slices.Equal(got, []string{"opt1", "opt2"}) {
		t.Errorf("PossibleValues() = %v", got)
	}
}

func TestFileField(t *testing.T) {
	ff := form.NewFile("f", nil, true, validator.NewArraySize[string](validator.Bound(1), validator.Bound(2)))
	if ff.IsValid() {
		t.Error("required file field without value should be invalid")
	}

	ff.SetValue(nil)
	if !ff.HasValue() {
		t.Error("SetValue(nil) should set an empty value")
	}
	if ff.IsValid() {
		t.Error("empty list below min should be invalid")
	}

	uris := []string{"s3://bucket/a"}
	ff.SetValue(uris)
	uris[0] = "mutated"
	if !ff.IsValid() {
		t.Error("one uri should be valid")
	}

	got := ff.Value().([]string)
	got[0] = "changed"
	if v, _ := ff.Get(); v[0] != "s3://bucket/a" {
		t.Error("Value() should return a copy")
	}
}

func TestDuplicate(t *testing.T) {
	tests := []struct {
		name  string
		field form.Field
	}{
		{"text", form.NewText("src", form.Ptr("v"), true, validator.NewTextContains("v"))},
		{"email", form.NewEmail("src", form.Ptr("a@b.co"), false)},
		{"single select", form.NewSingleSelect("src", form.Ptr("x"), true, []string{"x", "y"})},
		{"boolean", form.NewBoolean("src", form.Ptr(true), true)},
		{"file", form.NewFile("src", []string{"u1"}, true)},
		{"text without value", form.NewText("src", nil, true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup := tt.field.Duplicate("copy")

			if dup.ID() != "copy" {
				t.Errorf("ID() = %s, want copy", dup.ID())
			}
			if dup.Type() != tt.field.Type() {
				t.Errorf("Type() = %s, want %s", dup.Type(), tt.field.Type())
			}
			if dup.Required() != tt.field.Required() {
				t.Error("Required differs")
			}
			if dup.HasValue() != tt.field.HasValue() {
				t.Error("HasValue differs")
			}
			if dup.IsValid() != tt.field.IsValid() {
				t.Error("IsValid differs")
			}
			if !dup.Visible() {
				t.Error("duplicate should be visible")
			}
		})
	}
}

func TestDuplicate_IsIndependent(t *testing.T) {
	src := form.NewFile("src", []string{"u1"}, true)
	dup := src.Duplicate("copy").(*form.FileField)

	dup.SetValue([]string{"u2", "u3"})
	dup.SetRequired(false)

	if v, _ := src.Get(); !slices.Equal(v, []string{"u1"}) {
		t.Errorf("source value changed to %v", v)
	}
	if !src.Required() {
		t.Error("source required flag changed")
	}

	text := form.NewText("t", form.Ptr("abc"), false, validator.NewTextContains("a"))
	textDup := text.Duplicate("t2").(*form.TextField)
	textDup.SetValidators()
	if len(text.Validators()) != 1 {
		t.Error("replacing the duplicate's validators should not affect the source")
	}
}
