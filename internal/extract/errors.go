package extract

import "fmt"

// ParseError is returned when the input cannot be read as an HTML document.
// No sections are produced alongside it.
type ParseError struct {
	Reason string // Short description, e.g. "binary content (image/png)"
	Err    error  // Underlying cause, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse html: %s: %v", e.Reason, e.Err)
	}
	return "parse html: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
