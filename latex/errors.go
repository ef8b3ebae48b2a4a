package latex

import (
	"errors"
	"fmt"
)

// ErrIllegalState is matched by every lifecycle violation.
var ErrIllegalState = errors.New("latex: illegal state")

var (
	// ErrNotOpen is returned when writing before Open.
	ErrNotOpen = fmt.Errorf("%w: write before open", ErrIllegalState)

	// ErrClosed is returned when writing after Close or after a failed Open.
	ErrClosed = fmt.Errorf("%w: document is closed", ErrIllegalState)

	// ErrAlreadyOpen is returned by a second call to Open.
	ErrAlreadyOpen = fmt.Errorf("%w: document already open", ErrIllegalState)
)

// PathError records an I/O failure against the destination.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string { return "latex: " + e.Op + " " + e.Path + ": " + e.Err.Error() }

func (e *PathError) Unwrap() error { return e.Err }
