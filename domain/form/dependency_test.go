package form_test

import (
	"testing"

	"github.com/artpar/formgate/domain/form"
)

func TestDependency_EqualsParentValue(t *testing.T) {
	tests := []struct {
		name    string
		trigger any
		value   any
		want    bool
	}{
		{"equal strings", "opt2", "opt2", true},
		{"different strings", "opt2", "opt1", false},
		{"equal bools", true, true, true},
		{"different bools", true, false, false},
		{"string vs bool", "true", true, false},
		{"nil vs nil", nil, nil, true},
		{"nil trigger, value set", nil, "x", false},
		{"trigger set, nil value", "x", nil, false},
		{"int vs float", 1, 1.0, false},
		{"slices never equal", []string{"a"}, []string{"a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep := form.NewDependency("d", "c", "p", tt.trigger)
			if got := dep.EqualsParentValue(tt.value); got != tt.want {
				t.Errorf("EqualsParentValue(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
