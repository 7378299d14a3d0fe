package engine

import (
	"bytes"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

const (
	// LastResultName is the reserved binding updated after every execution.
	LastResultName = "Ans"

	seedImportPath = "manhole"
)

// Interp is one live interpreter namespace. A session's commands compile and
// execute against the same Interp for the session's whole lifetime; in
// shared mode a single Interp backs every session.
type Interp struct {
	mu   sync.Mutex
	eval *interp.Interpreter
	out  *captureWriter
	last *any
}

// New builds a fresh interpreter seeded with the given bindings. The seed
// mapping itself is copied, never retained or mutated. Seed values are
// injected as a dot-imported binary package, so names must be exported Go
// identifiers. The fmt package is pre-imported for convenience.
func New(seed map[string]any) (*Interp, error) {
	if err := ValidateSeed(seed); err != nil {
		return nil, err
	}
	cw := &captureWriter{}
	i := interp.New(interp.Options{Stdout: cw, Stderr: cw})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("engine: load stdlib symbols: %w", err)
	}

	last := new(any)
	syms := map[string]reflect.Value{
		LastResultName: reflect.ValueOf(last).Elem(),
	}
	for name, v := range seed {
		syms[name] = reflect.ValueOf(v)
	}
	exports := interp.Exports{seedImportPath + "/" + seedImportPath: syms}
	if err := i.Use(exports); err != nil {
		return nil, fmt.Errorf("engine: bind seed: %w", err)
	}
	if _, err := i.Eval(`import . "` + seedImportPath + `"`); err != nil {
		return nil, fmt.Errorf("engine: import seed: %w", err)
	}
	if _, err := i.Eval(`import "fmt"`); err != nil {
		return nil, fmt.Errorf("engine: import fmt: %w", err)
	}

	return &Interp{eval: i, out: cw, last: last}, nil
}

// ValidateSeed rejects seed names that are not exported identifiers, the
// reserved last-result name, and nil values.
func ValidateSeed(seed map[string]any) error {
	for name, v := range seed {
		if !exportedIdent(name) {
			return fmt.Errorf("%w: name %q must be an exported Go identifier", ErrInvalidSeed, name)
		}
		if name == LastResultName {
			return fmt.Errorf("%w: name %q is reserved", ErrInvalidSeed, name)
		}
		if v == nil {
			return fmt.Errorf("%w: name %q has a nil value", ErrInvalidSeed, name)
		}
	}
	return nil
}

// Compile turns accumulated source into a runnable unit.
//
// Returns ErrIncomplete when the text is lexically open (more input can
// complete it), a *SyntaxError when the compiler rejects it, and a *Unit
// otherwise. A *SyntaxError with AtEOF set means the parse failed exactly at
// end of input; the caller decides whether to keep buffering.
func (n *Interp) Compile(src string) (*Unit, error) {
	if Pending(src) {
		return nil, ErrIncomplete
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	prog, err := n.eval.Compile(src)
	if err != nil {
		msg := err.Error()
		return nil, &SyntaxError{Msg: msg, AtEOF: strings.Contains(msg, "found 'EOF'")}
	}
	_, exprErr := parser.ParseExpr(strings.TrimSpace(src))
	return &Unit{prog: prog, expr: exprErr == nil, src: src}, nil
}

// Execute runs one compiled unit. Output written by the snippet during the
// call is captured into the result. An expression's value is rendered and
// bound to Ans; statements leave no value and clear Ans. Failures raised by
// the snippet, including interpreter panics, come back as *ExecError with
// the output of the failed run discarded.
//
// Executions against one Interp are serialized by mutex. An execution
// abandoned by a timed-out caller keeps the lock until it finishes, so a
// runaway snippet delays later commands on the same namespace rather than
// racing them.
func (n *Interp) Execute(u *Unit) (Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var buf bytes.Buffer
	n.out.redirect(&buf)
	v, err := n.run(u)
	n.out.redirect(nil)

	if err != nil {
		return Result{}, &ExecError{Diagnostic: diagnostic(err)}
	}
	res := Result{Output: buf.String()}
	if u.expr && v.IsValid() && v.CanInterface() {
		val := v.Interface()
		res.Value = renderValue(val)
		res.HasValue = true
		*n.last = val
	} else {
		*n.last = nil
	}
	return res, nil
}

func (n *Interp) run(u *Unit) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return n.eval.Execute(u.prog)
}

func diagnostic(err error) string {
	var p interp.Panic
	if errors.As(err, &p) {
		return fmt.Sprintf("panic: %v\n%s", p.Value, p.Stack)
	}
	return err.Error()
}

func renderValue(v any) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func exportedIdent(name string) bool {
	if name == "" || !token.IsIdentifier(name) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// captureWriter is the interpreter's permanent stdout/stderr. Between
// executions it swallows writes; during one it redirects into that
// execution's buffer, so output from an abandoned run never reaches a later
// command's response.
type captureWriter struct {
	mu  sync.Mutex
	dst io.Writer
}

func (w *captureWriter) redirect(dst io.Writer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dst = dst
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dst == nil {
		return len(p), nil
	}
	return w.dst.Write(p)
}
