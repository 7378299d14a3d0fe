package manhole

import (
	"errors"
	"strings"

	"github.com/danmuck/manholectl/internal/engine"
)

// Engine is the script capability a session compiles and executes against.
// One Engine instance is one namespace.
type Engine interface {
	Compile(src string) (*engine.Unit, error)
	Execute(u *engine.Unit) (engine.Result, error)
}

// CommandBuffer accumulates raw lines until they form one executable unit.
// It holds at most one in-progress unit and is never shared across sessions.
type CommandBuffer struct {
	eng   Engine
	buf   strings.Builder
	lines int
}

func NewCommandBuffer(eng Engine) *CommandBuffer {
	return &CommandBuffer{eng: eng}
}

// Partial reports whether the buffer holds unconsumed text. Used only to
// pick the continuation prompt.
func (b *CommandBuffer) Partial() bool {
	return b.lines > 0
}

func (b *CommandBuffer) Reset() {
	b.buf.Reset()
	b.lines = 0
}

// Feed appends one line and classifies the accumulated text.
//
// Returns (unit, nil) when the text compiled; the buffer is cleared.
// Returns (nil, nil) when more input is needed; the buffer is retained.
// Returns (nil, *engine.SyntaxError) when the text is malformed; the buffer
// is cleared so the failure never leaks into the next command.
//
// Units spanning more than one line end only on an explicit blank line: a
// block header followed by nothing stays partial indefinitely.
func (b *CommandBuffer) Feed(line string) (*engine.Unit, error) {
	line = strings.TrimRight(line, "\r\n")
	blank := strings.TrimSpace(line) == ""
	if b.lines == 0 && blank {
		return nil, nil
	}
	b.buf.WriteString(line)
	b.buf.WriteString("\n")
	b.lines++

	if b.lines > 1 && !blank {
		return nil, nil
	}

	unit, err := b.eng.Compile(b.buf.String())
	if err != nil {
		if errors.Is(err, engine.ErrIncomplete) {
			return nil, nil
		}
		var syn *engine.SyntaxError
		if errors.As(err, &syn) && syn.AtEOF && !blank {
			// the parse ran out of input mid-statement; keep buffering
			return nil, nil
		}
		b.Reset()
		return nil, err
	}
	b.Reset()
	return unit, nil
}
