package view

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"calview/internal/calendar"
	appLog "calview/internal/log"
)

var (
	// ErrSessionNotFound is returned for unknown, expired or already
	// unmounted views.
	ErrSessionNotFound = errors.New("view: session not found")

	// ErrTooManySessions is returned by Create when the mount limit is
	// reached.
	ErrTooManySessions = errors.New("view: too many mounted views")
)

// SessionOption configures Sessions.
type SessionOption func(*Sessions)

// WithMaxSessions caps the number of mounted views; zero means no cap.
func WithMaxSessions(n int) SessionOption {
	return func(s *Sessions) { s.max = n }
}

// WithIdleTimeout unmounts views not touched for d; zero keeps them until
// deleted.
func WithIdleTimeout(d time.Duration) SessionOption {
	return func(s *Sessions) { s.idle = d }
}

// WithSessionClock replaces the clock used for idle expiry.
func WithSessionClock(c calendar.Clock) SessionOption {
	return func(s *Sessions) { s.clock = c }
}

type session struct {
	ctrl     *Controller
	lastUsed time.Time
}

// Sessions keeps the controllers of mounted views by ID. Each remote client
// mounts its own view and unmounts it when done; views left idle longer than
// the idle timeout are dropped.
type Sessions struct {
	newController func() *Controller
	max           int
	idle          time.Duration
	clock         calendar.Clock

	mu    sync.Mutex
	views map[string]*session
}

// NewSessions uses factory to build the controller of every new view.
func NewSessions(factory func() *Controller, opts ...SessionOption) *Sessions {
	s := &Sessions{
		newController: factory,
		clock:         time.Now,
		views:         make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create mounts a new view and returns its ID. Idle views are evicted first;
// if the cap is still reached it returns ErrTooManySessions.
func (s *Sessions) Create() (string, *Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.pruneLocked(now)
	if s.max > 0 && len(s.views) >= s.max {
		return "", nil, ErrTooManySessions
	}

	id := uuid.NewString()
	c := s.newController()
	s.views[id] = &session{ctrl: c, lastUsed: now}

	appLog.Info("view mounted", "id", id)
	return id, c, nil
}

// Get returns the controller of id and marks it as used.
func (s *Sessions) Get(id string) (*Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	v, ok := s.views[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.expired(v, now) {
		delete(s.views, id)
		appLog.Info("view expired", "id", id)
		return nil, ErrSessionNotFound
	}
	v.lastUsed = now
	return v.ctrl, nil
}

// Delete unmounts a view; its state is discarded.
func (s *Sessions) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.views, id)
	appLog.Info("view unmounted", "id", id)
	return nil
}

// Prune drops every idle view and reports how many were removed.
func (s *Sessions) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(s.clock())
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

func (s *Sessions) pruneLocked(now time.Time) int {
	n := 0
	for id, v := range s.views {
		if s.expired(v, now) {
			delete(s.views, id)
			n++
		}
	}
	if n > 0 {
		appLog.Debug("idle views pruned", "count", n)
	}
	return n
}

func (s *Sessions) expired(v *session, now time.Time) bool {
	return s.idle > 0 && now.Sub(v.lastUsed) >= s.idle
}
