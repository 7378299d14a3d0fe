package engine

import (
	"errors"

	"github.com/traefik/yaegi/interp"
)

var (
	ErrIncomplete  = errors.New("engine: incomplete input")
	ErrInvalidSeed = errors.New("engine: invalid seed binding")
)

// SyntaxError reports source rejected by the compiler.
type SyntaxError struct {
	Msg string
	// AtEOF marks a parse that failed at end of input; further text may
	// still complete the unit.
	AtEOF bool
}

func (e *SyntaxError) Error() string { return e.Msg }

// ExecError reports a failure raised by executed user code. Diagnostic is
// the full text destined for the client, possibly multi-line.
type ExecError struct {
	Diagnostic string
}

func (e *ExecError) Error() string { return e.Diagnostic }

// Unit is one compiled snippet, runnable exactly once against the
// interpreter that compiled it.
type Unit struct {
	prog *interp.Program
	expr bool
	src  string
}

// Source returns the raw text the unit was compiled from.
func (u *Unit) Source() string { return u.src }

// Result is the outcome of one successful execution.
type Result struct {
	Value    string
	HasValue bool
	Output   string
}
