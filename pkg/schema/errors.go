package schema

import (
	"errors"
	"fmt"
)

// ErrSchema is the sentinel wrapped by every SchemaError.
var ErrSchema = errors.New("schema: invalid schema")

// SchemaError reports a dangling or malformed reference, or a schema node the
// resolver cannot classify.
type SchemaError struct {
	Ref    string
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e == nil {
		return ErrSchema.Error()
	}
	switch {
	case e.Ref != "" && e.Path != "":
		return fmt.Sprintf("schema resolver: %s (ref %q at %q)", e.Reason, e.Ref, e.Path)
	case e.Ref != "":
		return fmt.Sprintf("schema resolver: %s (ref %q)", e.Reason, e.Ref)
	case e.Path != "":
		return fmt.Sprintf("schema resolver: %s (at %q)", e.Reason, e.Path)
	default:
		return "schema resolver: " + e.Reason
	}
}

// Unwrap allows errors.Is(err, ErrSchema).
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}
