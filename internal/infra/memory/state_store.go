package memory

import (
	"context"
	"sync"
	"time"

	"quiz-option-service/internal/app"
)

// StateStore is an in-memory implementation of app.StateRepository.
// Entries expire ttl after their last Put; a ttl <= 0 keeps them until Delete.
type StateStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu        sync.RWMutex
	sessions  map[string]storedSession
	nextSweep time.Time
}

type storedSession struct {
	session   *app.Session
	expiresAt time.Time
}

func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]storedSession),
	}
}

// Put stores the session and refreshes its expiry.
func (s *StateStore) Put(_ context.Context, session *app.Session) error {
	id := session.ID()
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	entry := storedSession{session: session}
	if s.ttl > 0 {
		entry.expiresAt = now.Add(s.ttl)
	}
	s.sessions[id] = entry
	return nil
}

func (s *StateStore) Get(_ context.Context, stateID string) (*app.Session, bool) {
	now := s.clock()

	s.mu.RLock()
	entry, ok := s.sessions[stateID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if entry.expired(now) {
		s.mu.Lock()
		if current, ok := s.sessions[stateID]; ok && current.expired(now) {
			delete(s.sessions, stateID)
		}
		s.mu.Unlock()
		return nil, false
	}
	return entry.session, true
}

func (s *StateStore) Delete(_ context.Context, stateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, stateID)
}

// Len returns the number of stored sessions, expired ones not yet swept included.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sweepLocked drops expired entries at most once per ttl so states that are
// never read again do not pile up.
func (s *StateStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Before(s.nextSweep) {
		return
	}
	for id, entry := range s.sessions {
		if entry.expired(now) {
			delete(s.sessions, id)
		}
	}
	s.nextSweep = now.Add(s.ttl)
}

func (e storedSession) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
