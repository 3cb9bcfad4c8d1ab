// Package form provides the field, dependency, section and form types of
// a dynamic form, together with the section engine that keeps conditional
// visibility consistent as fields and dependencies change.
//
// A Section owns its fields. Callers create, update and delete fields and
// dependencies only through Section methods; the visible flag of every field
// is derived by the section and cannot be set from outside this package.
//
// Sections are not safe for concurrent use. Embedders that share a section
// between goroutines must serialize access to it.
package form
