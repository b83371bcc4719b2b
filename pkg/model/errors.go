package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema is matched by every schema error via errors.Is.
var ErrSchema = errors.New("invalid schema")

// SchemaError reports a malformed or inconsistent schema element.
type SchemaError struct {
	// Path is the dotted path of the offending field or composite.
	Path string
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return e.Path + ": " + e.Msg
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// SchemaErrors collects every schema error found in one validation pass.
type SchemaErrors []*SchemaError

func (e SchemaErrors) Error() string {
	if len(e) == 1 {
		return "schema error: " + e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d schema errors: %s", len(e), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e SchemaErrors) Unwrap() []error {
	out := make([]error, len(e))
	for i, err := range e {
		out[i] = err
	}
	return out
}

func (e *SchemaErrors) add(path, format string, args ...any) {
	*e = append(*e, &SchemaError{Path: path, Msg: fmt.Sprintf(format, args...)})
}

func (e SchemaErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
