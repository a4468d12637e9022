package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-option-service/internal/app"
	"quiz-option-service/internal/domain"
)

// StateStore is a Redis-backed implementation of app.StateRepository.
// Notes:
//   - Live sessions stay in a local map so click handlers and watchers keep
//     working against the same document.
//   - Every Put writes the state snapshot to Redis; a Get that misses the
//     local map (restart, another instance) rebuilds the session from it.
//   - Redis owns expiry: a local hit is only served while the key exists,
//     and local entries idle past the TTL are swept on Put.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
	newDoc app.DocumentFactory
	clock  func() time.Time

	mu        sync.RWMutex
	sessions  map[string]localSession
	nextSweep time.Time
}

type localSession struct {
	session  *app.Session
	lastSeen time.Time
}

func NewStateStore(client *redis.Client, ttl time.Duration, newDoc app.DocumentFactory) *StateStore {
	return &StateStore{
		client:   client,
		ttl:      ttl,
		newDoc:   newDoc,
		clock:    time.Now,
		sessions: make(map[string]localSession),
	}
}

func (s *StateStore) Put(ctx context.Context, session *app.Session) error {
	snap := session.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	now := s.clock()
	s.mu.Lock()
	s.sweepLocked(now)
	s.sessions[snap.ID] = localSession{session: session, lastSeen: now}
	s.mu.Unlock()

	if err := s.client.Set(ctx, s.key(snap.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store state: %w", err)
	}
	return nil
}

func (s *StateStore) Get(ctx context.Context, stateID string) (*app.Session, bool) {
	s.mu.RLock()
	local, ok := s.sessions[stateID]
	s.mu.RUnlock()
	if ok {
		n, err := s.client.Exists(ctx, s.key(stateID)).Result()
		if err == nil && n == 0 {
			s.drop(stateID, local.session)
			return nil, false
		}
		// an unreachable Redis keeps serving the live session
		return local.session, true
	}

	data, err := s.client.Get(ctx, s.key(stateID)).Bytes()
	if err != nil {
		return nil, false
	}
	var snap domain.RenderState
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[stateID]; ok {
		return existing.session, true
	}
	session := app.RestoreSession(snap, s.newDoc)
	s.sessions[stateID] = localSession{session: session, lastSeen: s.clock()}
	return session, true
}

func (s *StateStore) Delete(ctx context.Context, stateID string) {
	s.mu.Lock()
	delete(s.sessions, stateID)
	s.mu.Unlock()
	// best-effort
	_ = s.client.Del(ctx, s.key(stateID)).Err()
}

// drop removes the local entry unless a concurrent Put replaced it.
func (s *StateStore) drop(stateID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[stateID]; ok && current.session == session {
		delete(s.sessions, stateID)
	}
}

// sweepLocked forgets local sessions not written for longer than the TTL;
// their Redis keys have expired by then.
func (s *StateStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Before(s.nextSweep) {
		return
	}
	for id, local := range s.sessions {
		if now.Sub(local.lastSeen) >= s.ttl {
			delete(s.sessions, id)
		}
	}
	s.nextSweep = now.Add(s.ttl)
}

// localLen reports the number of sessions held in the local map.
func (s *StateStore) localLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *StateStore) key(stateID string) string {
	return "quiz:state:" + stateID
}
