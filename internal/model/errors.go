package model

import (
	"errors"
	"fmt"
)

// ErrSchema is matched by every *SchemaError through errors.Is.
var ErrSchema = errors.New("config schema violation")

// ErrValue is matched by every *ValueError through errors.Is.
var ErrValue = errors.New("config value out of range")

// SchemaError reports a config document that does not match the schema: a
// required key is absent or holds the wrong primitive type. Field is empty
// when the document itself is malformed.
type SchemaError struct {
	Field  string
	Reason string
	Err    error // Decoder error, if any.
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	msg := "config"
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the decoder error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// Is reports ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// ValueError reports a well-typed config field that violates a numeric
// invariant.
type ValueError struct {
	Field  string
	Value  any
	Reason string
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return fmt.Sprintf("config: field %q = %v: %s", e.Field, e.Value, e.Reason)
}

// Is reports ErrValue.
func (e *ValueError) Is(target error) bool {
	return target == ErrValue
}
