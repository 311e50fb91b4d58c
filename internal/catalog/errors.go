package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping: caller mistakes map to
// 4xx responses, missing records to 404, uniqueness collisions to 409, and
// store-layer failures to 5xx.
type Kind int

const (
	// KindInvalid marks malformed or missing caller input.
	KindInvalid Kind = iota
	// KindNotFound marks a missing product or record set.
	KindNotFound
	// KindConflict marks a name-uniqueness collision.
	KindConflict
	// KindPersistence marks a store-layer failure, including the post-update
	// race where a pre-checked record vanished before the write landed.
	KindPersistence
)

// Error carries the classification, a human-readable message, and, for
// validation failures, the field that triggered it.
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Invalid builds a caller-input error. field may be empty when the failure
// is not attributable to a single field.
func Invalid(field, format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a missing-record error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a uniqueness-collision error.
func Conflict(field, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Persistence builds a store-layer error.
func Persistence(format string, args ...any) *Error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err. Unclassified errors default to
// KindPersistence so unexpected failures surface as 5xx, never as caller
// mistakes.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// FieldOf returns the field that triggered a validation error, or "".
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
