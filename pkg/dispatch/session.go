package dispatch

import (
	"io"
	"sync"
)

// State is the lifecycle phase of one CLI invocation.
type State int

const (
	StateUninitialized State = iota
	StateConfigLoaded
	StateClientReady
	StateDispatching
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigLoaded:
		return "config_loaded"
	case StateClientReady:
		return "client_ready"
	case StateDispatching:
		return "dispatching"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session owns the backend client for a single invocation and releases it
// exactly once, whatever the outcome.
type Session[C io.Closer] struct {
	mu       sync.Mutex
	state    State
	client   C
	attached bool
	released bool
}

// NewSession returns an uninitialized session.
func NewSession[C io.Closer]() *Session[C] {
	return &Session[C]{}
}

// State returns the current phase.
func (s *Session[C]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Configured records that settings were loaded and validated.
func (s *Session[C]) Configured() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUninitialized {
		s.state = StateConfigLoaded
	}
}

// Attach hands the constructed client to the session.
func (s *Session[C]) Attach(c C) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
	s.attached = true
	s.released = false
	s.state = StateClientReady
}

// Fail marks the invocation as failed.
func (s *Session[C]) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
}

// Client returns the attached client, or ErrClientNotInitialized.
func (s *Session[C]) Client() (C, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached || s.released {
		var zero C
		return zero, ErrClientNotInitialized
	}
	return s.client, nil
}

func (s *Session[C]) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDispatching
}

func (s *Session[C]) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateSucceeded
	}
}

// Release closes the attached client. Calls after the first are no-ops.
func (s *Session[C]) Release() error {
	s.mu.Lock()
	if !s.attached || s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	c := s.client
	s.mu.Unlock()
	return c.Close()
}
