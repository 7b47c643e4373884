package view

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one visitor's navigation state. It lives only in memory.
type Session struct {
	ID        string    `json:"id"`
	Screen    Screen    `json:"screen"`
	CreatedAt time.Time `json:"created_at"`
	SeenAt    time.Time `json:"seen_at"`
}

// Registry holds live sessions and drops those idle for longer than ttl.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates a registry; ttl <= 0 keeps sessions until process exit.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{sessions: make(map[string]*Session), ttl: ttl, now: time.Now}
}

// Create starts a session on the landing screen.
func (r *Registry) Create() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	now := r.now()
	s := &Session{ID: uuid.NewString(), Screen: Landing, CreatedAt: now, SeenAt: now}
	r.sessions[s.ID] = s
	return *s
}

// Get returns the session and refreshes its idle timer.
func (r *Registry) Get(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.lookupLocked(id)
	if err != nil {
		return Session{}, err
	}
	return *s, nil
}

// Apply moves the session through the navigation state machine.
func (r *Registry) Apply(id string, e Event) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.lookupLocked(id)
	if err != nil {
		return Session{}, err
	}
	next, err := Transition(s.Screen, e)
	if err != nil {
		return *s, err
	}
	s.Screen = next
	return *s, nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	return len(r.sessions)
}

func (r *Registry) lookupLocked(id string) (*Session, error) {
	r.sweepLocked()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.SeenAt = r.now()
	return s, nil
}

func (r *Registry) sweepLocked() {
	if r.ttl <= 0 {
		return
	}
	cutoff := r.now().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.SeenAt.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
