package schema

import "fmt"

// FieldError reports the first field that kept a decoded value from being
// trusted as a domain entity. Decode (syntax) failures are plain errors;
// only shape rejections carry a FieldError.
type FieldError struct {
	Entity string
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %q %s", e.Entity, e.Field, e.Reason)
}

func fieldErr(entity, field, reason string) *FieldError {
	return &FieldError{Entity: entity, Field: field, Reason: reason}
}
