package manhole

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/manholectl/internal/engine"
	"github.com/danmuck/manholectl/internal/observability"
)

// SessionState describes where a session is in its protocol cycle.
type SessionState string

const (
	StateConnected  SessionState = "connected"
	StatePrompt     SessionState = "prompt"
	StateReading    SessionState = "reading"
	StateCompiling  SessionState = "compiling"
	StateExecuting  SessionState = "executing"
	StateResponding SessionState = "responding"
	StateClosed     SessionState = "closed"
	StateFaulted    SessionState = "faulted"
)

// SessionConfig carries per-session wire cosmetics. Prompt strings are
// explicit configuration, never ambient process-wide state.
type SessionConfig struct {
	Banner             string
	PromptPrimary      string
	PromptContinuation string
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		PromptPrimary:      ">>> ",
		PromptContinuation: "... ",
	}
}

func (c SessionConfig) WithDefaults() SessionConfig {
	if c.PromptPrimary == "" {
		c.PromptPrimary = ">>> "
	}
	if c.PromptContinuation == "" {
		c.PromptContinuation = "... "
	}
	return c
}

// Session drives the prompt/read/compile/execute/respond cycle for one
// connection. Commands are applied to the session's namespace strictly in
// submission order, one at a time.
type Session struct {
	id       string
	node     string
	cfg      SessionConfig
	conn     io.ReadWriteCloser
	reader   *bufio.Reader
	buf      *CommandBuffer
	eng      Engine
	strategy Strategy
	log      zerolog.Logger

	mu    sync.RWMutex
	state SessionState
}

func NewSession(node string, conn io.ReadWriteCloser, eng Engine, strategy Strategy, cfg SessionConfig) *Session {
	id := uuid.NewString()
	logger := log.With().Str("session", id).Logger()
	if nc, ok := conn.(net.Conn); ok {
		logger = logger.With().Str("remote", nc.RemoteAddr().String()).Logger()
	}
	return &Session{
		id:       id,
		node:     node,
		cfg:      cfg.WithDefaults(),
		conn:     conn,
		reader:   bufio.NewReader(conn),
		buf:      NewCommandBuffer(eng),
		eng:      eng,
		strategy: strategy,
		log:      logger,
		state:    StateConnected,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run blocks until the transport closes or the session faults. A fault is a
// defect inside the server: it is logged and ends this session only, never
// the host process or other sessions.
func (s *Session) Run() {
	defer func() {
		if r := recover(); r != nil {
			s.setState(StateFaulted)
			observability.RecordSessionFault(s.node)
			s.log.Error().Interface("panic", r).Msg("session_fault")
		}
		_ = s.conn.Close()
	}()

	s.log.Info().Msg("session_open")
	if s.cfg.Banner != "" {
		if err := s.write([]byte(s.cfg.Banner)); err != nil {
			s.finish()
			return
		}
	}

	for {
		s.setState(StatePrompt)
		prompt := s.cfg.PromptPrimary
		if s.buf.Partial() {
			prompt = s.cfg.PromptContinuation
		}
		if err := s.write([]byte(prompt)); err != nil {
			s.finish()
			return
		}

		s.setState(StateReading)
		line, _ := s.reader.ReadString('\n')
		if len(line) == 0 {
			// end of stream with nothing buffered
			s.finish()
			return
		}

		s.setState(StateCompiling)
		unit, cerr := s.buf.Feed(line)
		if cerr != nil {
			var syn *engine.SyntaxError
			diag := cerr.Error()
			if errors.As(cerr, &syn) {
				diag = syn.Msg
			}
			observability.RecordCommand(s.node, "syntax_error", 0)
			if err := s.writeDiagnostic(diag); err != nil {
				s.finish()
				return
			}
			continue
		}
		if unit == nil {
			continue
		}

		s.setState(StateExecuting)
		start := time.Now()
		res, xerr := s.strategy.Run(s.eng, unit)

		s.setState(StateResponding)
		var werr error
		switch {
		case xerr == nil:
			observability.RecordCommand(s.node, "ok", time.Since(start))
			if res.HasValue {
				werr = s.write([]byte(res.Value + "\n"))
			}
			if werr == nil && res.Output != "" {
				werr = s.write([]byte(res.Output))
			}
		case errors.Is(xerr, ErrExecTimeout):
			observability.RecordCommand(s.node, "timeout", time.Since(start))
			s.log.Warn().Str("source", strings.TrimSpace(unit.Source())).Msg("command_timeout")
			werr = s.writeDiagnostic(xerr.Error())
		default:
			var execErr *engine.ExecError
			if !errors.As(xerr, &execErr) {
				// a defect in the server, not in user code
				s.setState(StateFaulted)
				observability.RecordSessionFault(s.node)
				s.log.Error().Err(xerr).Msg("session_fault")
				return
			}
			observability.RecordCommand(s.node, "error", time.Since(start))
			werr = s.writeDiagnostic(execErr.Diagnostic)
		}
		if werr != nil {
			s.finish()
			return
		}
	}
}

func (s *Session) finish() {
	s.setState(StateClosed)
	s.log.Info().Msg("session_closed")
}

func (s *Session) write(p []byte) error {
	if _, err := s.conn.Write(p); err != nil {
		s.log.Debug().Err(err).Msg("transport_write_failed")
		return err
	}
	return nil
}

func (s *Session) writeDiagnostic(diag string) error {
	if !strings.HasSuffix(diag, "\n") {
		diag += "\n"
	}
	return s.write([]byte(diag))
}
