package session

import (
	"sync"
	"time"

	"github.com/codefionn/rechenschnell/internal/calc"
)

// Session is one calculator owned by one logical user. All access to its
// engine goes through Do, which serialises callers.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	engine   *calc.Engine
	lastUsed time.Time
	now      func() time.Time
}

func newSession(id string, now func() time.Time, opts []calc.Option) *Session {
	t := now()
	return &Session{
		ID:        id,
		CreatedAt: t,
		engine:    calc.New(opts...),
		lastUsed:  t,
		now:       now,
	}
}

// Do runs fn with exclusive access to the engine and returns the resulting
// state.
func (s *Session) Do(fn func(e *calc.Engine)) calc.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = s.now()
	if fn != nil {
		fn(s.engine)
	}
	return s.engine.State()
}

// State returns the engine state without counting as use.
func (s *Session) State() calc.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}

// LastUsed returns when the session was last touched.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = s.now()
	s.mu.Unlock()
}
