package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codefionn/rechenschnell/internal/calc"
	"github.com/codefionn/rechenschnell/internal/logger"
)

var (
	// ErrNotFound is returned for unknown or evicted session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrLimitReached is returned by Create when MaxSessions are live.
	ErrLimitReached = errors.New("session limit reached")
)

// maxIDAttempts bounds retries when a generated ID is already taken.
const maxIDAttempts = 8

// Options configures a Manager.
type Options struct {
	// IdleTimeout evicts sessions untouched for this long. 0 keeps them forever.
	IdleTimeout time.Duration
	// MaxSessions caps live sessions. 0 means no cap.
	MaxSessions int
	// EngineOptions are applied to every new engine.
	EngineOptions []calc.Option
	// Now overrides the clock, for tests.
	Now func() time.Time
	// SweepInterval is how often Run checks for idle sessions. Defaults to a
	// quarter of IdleTimeout, at least one second.
	SweepInterval time.Duration
	// InUse reports whether a session is still attached to a live client.
	// Sweep never evicts such a session.
	InUse func(id string) bool
	// OnEvict is called, without locks held, for every session removed by Sweep.
	OnEvict func(*Session)
}

// Manager owns the live sessions. It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	log      *logger.Logger
}

// NewManager creates an empty manager.
func NewManager(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = opts.IdleTimeout / 4
		if opts.SweepInterval < time.Second {
			opts.SweepInterval = time.Second
		}
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		log:      logger.Global().WithPrefix("session"),
	}
}

// Create starts a new session with a fresh engine.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return nil, fmt.Errorf("%w (%d)", ErrLimitReached, m.opts.MaxSessions)
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := GenerateWordID()
		if _, taken := m.sessions[id]; taken {
			continue
		}
		s := newSession(id, m.opts.Now, m.opts.EngineOptions)
		m.sessions[id] = s
		m.log.Debug("created %s (%d live)", id, len(m.sessions))
		return s, nil
	}
	return nil, errors.New("failed to allocate a unique session ID")
}

// Get returns the session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.touch()
	return s, nil
}

// GetOrCreate returns the session with id if it is live, otherwise a new one.
// The boolean reports whether a session was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool, error) {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s, false, nil
		}
	}
	s, err := m.Create()
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Do runs fn against the engine of session id with exclusive access.
func (m *Manager) Do(id string, fn func(e *calc.Engine)) (calc.State, error) {
	s, err := m.Get(id)
	if err != nil {
		return calc.State{}, err
	}
	return s.Do(fn), nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	m.log.Debug("deleted %s", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the live session IDs in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Sweep evicts sessions idle for longer than IdleTimeout and returns how many
// were removed.
func (m *Manager) Sweep() int {
	if m.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.opts.Now().Add(-m.opts.IdleTimeout)

	var evicted []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) && !m.inUse(id) {
			delete(m.sessions, id)
			evicted = append(evicted, s)
		}
	}
	m.mu.Unlock()

	for _, s := range evicted {
		m.log.Info("evicted idle session %s", s.ID)
		if m.opts.OnEvict != nil {
			m.opts.OnEvict(s)
		}
	}
	return len(evicted)
}

func (m *Manager) inUse(id string) bool {
	return m.opts.InUse != nil && m.opts.InUse(id)
}

// Run sweeps every SweepInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.opts.IdleTimeout <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
