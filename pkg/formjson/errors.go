package formjson

import (
	"errors"
	"fmt"
)

// DeserializationError reports a payload that cannot be turned into a
// domain value.
type DeserializationError struct {
	// Path locates the offending element, e.g. "fields[2].validator".
	Path   string
	Reason string
}

func (e *DeserializationError) Error() string {
	if e.Path == "" {
		return "deserialize: " + e.Reason
	}
	return fmt.Sprintf("deserialize %s: %s", e.Path, e.Reason)
}

// ErrUnsupportedValidator is returned when encoding a validator this package
// has no wire form for.
var ErrUnsupportedValidator = errors.New("unsupported validator")

// IsDeserializationError reports whether err is or wraps a *DeserializationError.
func IsDeserializationError(err error) bool {
	var de *DeserializationError
	return errors.As(err, &de)
}

func deserializationErrorf(path, format string, args ...any) *DeserializationError {
	return &DeserializationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func joinPath(prefix, elem string) string {
	if prefix == "" {
		return elem
	}
	return prefix + "." + elem
}
