package whispercli

import (
	"strings"
	"sync"

	"github.com/kbukum/speechkit/logger"
	"github.com/kbukum/speechkit/transcription"
)

// State is a recognizer run's position in its lifecycle.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// session tracks one recognizer run: Starting -> Running -> Succeeded or
// Failed. Every stdout chunk is a Running self-transition that appends to
// the raw output and reports the chunk's parsed text. Terminal states
// ignore further input.
type session struct {
	mu      sync.Mutex
	state   State
	raw     strings.Builder
	chunks  int
	opts    transcription.Options
	onChunk func(n int)
	log     *logger.Logger
}

func newSession(opts transcription.Options, log *logger.Logger) *session {
	return &session{state: StateStarting, opts: opts, log: log}
}

// started moves Starting to Running.
func (s *session) started(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStarting {
		s.transition(StateRunning, logger.Fields("pid", pid))
	}
}

// chunk handles one piece of stdout. Progress is reported while holding the
// lock so reports keep arrival order.
func (s *session) chunk(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateStarting:
		s.transition(StateRunning, nil)
	case StateRunning:
	default:
		return
	}

	s.raw.Write(b)
	s.chunks++
	if s.onChunk != nil {
		s.onChunk(len(b))
	}
	s.opts.Report(transcription.Texts(transcription.ParseLines(string(b))))
}

// finish moves to a terminal state and returns the transcript: the complete
// raw stdout on success.
func (s *session) finish(err error) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.transition(StateFailed, logger.ErrorFields("transcribe", err))
		return "", err
	}
	s.transition(StateSucceeded, logger.Fields("chunks", s.chunks))
	return s.raw.String(), nil
}

func (s *session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) transition(to State, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["from"] = s.state.String()
	fields[logger.FieldState] = to.String()
	s.state = to
	s.log.Debug("session state", fields)
}
