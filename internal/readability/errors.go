package readability

import "errors"

var (
	// ErrTooManyElements is returned before any work when the document has
	// more elements than Options.MaxElemsToParse.
	ErrTooManyElements = errors.New("too many elements")
	// ErrNilDocument is returned when Parse is called without a tree.
	ErrNilDocument = errors.New("nil document")
)
