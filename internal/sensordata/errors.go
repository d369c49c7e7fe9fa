package sensordata

import "fmt"

// MissingFileError reports an input path that does not exist.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file %q does not exist", e.Path)
}

// MissingColumnError reports a required column absent from an input header.
type MissingColumnError struct {
	Path   string
	Column string
	// Hint tells the caller how to produce the column, if known.
	Hint string
}

func (e *MissingColumnError) Error() string {
	msg := fmt.Sprintf("%s: required column %q is missing", e.Path, e.Column)
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

// MalformedNumericError reports a numeric field that could not be parsed,
// even after float coercion.
type MalformedNumericError struct {
	Path  string
	Line  int
	Field string
	Value string
	Err   error
}

func (e *MalformedNumericError) Error() string {
	return fmt.Sprintf("%s:%d: field %q has malformed numeric value %q", e.Path, e.Line, e.Field, e.Value)
}

func (e *MalformedNumericError) Unwrap() error {
	return e.Err
}
