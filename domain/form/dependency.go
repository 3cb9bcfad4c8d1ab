package form

import "reflect"

// Dependency makes the visibility of a child field conditional on the value
// of a parent field: the child is visible only while the parent's value
// equals ParentValue. A Dependency is immutable.
type Dependency struct {
	ID          string
	ChildID     string
	ParentID    string
	ParentValue any
}

// NewDependency creates a dependency record.
func NewDependency(id, childID, parentID string, parentValue any) Dependency {
	return Dependency{
		ID:          id,
		ChildID:     childID,
		ParentID:    parentID,
		ParentValue: parentValue,
	}
}

// EqualsParentValue reports whether v strictly equals the trigger value.
// Values of different dynamic types are never equal, and values whose type
// is not comparable (slices, maps) never equal anything.
func (d Dependency) EqualsParentValue(v any) bool {
	if d.ParentValue == nil || v == nil {
		return d.ParentValue == nil && v == nil
	}
	t := reflect.TypeOf(d.ParentValue)
	if t != reflect.TypeOf(v) || !t.Comparable() {
		return false
	}
	return d.ParentValue == v
}
