package repl

import "errors"

// Errors reported by the interactive session.
var (
	ErrNoEngine     = errors.New("repl requires a template engine")
	ErrOutOfBounds  = errors.New("history entry out of range")
	ErrEditDeclined = errors.New("data edit declined")
)
