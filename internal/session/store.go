// Package session keeps one assist.Assistant per web visitor, keyed by a
// random session ID and evicted after a period of inactivity.
package session

import (
	"sync"
	"time"

	"github.com/fpang/sight-assist/internal/assist"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Factory builds the assistant for a new session.
type Factory func(id string) *assist.Assistant

// Store maps session IDs to assistants. It is safe for concurrent use.
type Store struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*assist.Assistant
}

// NewStore returns a store that evicts sessions idle for longer than ttl.
// A zero ttl disables eviction.
func NewStore(factory Factory, ttl time.Duration) *Store {
	return &Store{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*assist.Assistant),
	}
}

// Get returns the assistant for id, creating a new session when id is empty,
// malformed, unknown, or expired. The returned id is the one to hand back to
// the client.
func (s *Store) Get(id string) (string, *assist.Assistant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := uuid.Parse(id); err == nil {
		if a, ok := s.sessions[id]; ok {
			if !s.expired(a) {
				return id, a
			}
			delete(s.sessions, id)
			log.Debug().Str("sessionId", id).Msg("Session expired")
		}
	}

	id = uuid.NewString()
	a := s.factory(id)
	s.sessions[id] = a
	log.Debug().Str("sessionId", id).Int("sessions", len(s.sessions)).Msg("Session created")
	return id, a
}

// Lookup returns the assistant for an existing, unexpired session.
func (s *Store) Lookup(id string) (*assist.Assistant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.sessions[id]
	if !ok || s.expired(a) {
		return nil, false
	}
	return a, true
}

// Len reports the number of live sessions, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
// Sessions with an action in flight are kept.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, a := range s.sessions {
		if s.expired(a) {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		log.Info().Int("evicted", n).Int("remaining", len(s.sessions)).Msg("Swept idle sessions")
	}
	return n
}

// RunSweeper calls Sweep every interval until stop is closed.
func (s *Store) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-stop:
			return
		}
	}
}

func (s *Store) expired(a *assist.Assistant) bool {
	if s.ttl <= 0 || a.State() == assist.StateProcessing {
		return false
	}
	return s.now().Sub(a.LastActive()) > s.ttl
}
