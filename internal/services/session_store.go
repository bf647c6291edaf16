package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"darkwatch/pkg/contracts/domain"
)

// SessionStore keeps one working set per dashboard session. Working
// sets live only for the duration of a session: nothing is persisted,
// and sessions never see each other's data. Idle sessions are evicted
// so abandoned browser tabs do not pin uploaded data in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	idleTTL  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type session struct {
	workingSet domain.WorkingSet
	lastAccess time.Time
}

// NewSessionStore creates a session store with the given idle eviction
// TTL. A non-positive TTL disables eviction.
func NewSessionStore(idleTTL time.Duration, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		sessions: make(map[string]*session),
		idleTTL:  idleTTL,
		logger:   logger.With(slog.String("component", "session_store")),
		now:      time.Now,
	}
}

// NewSession allocates a fresh session with an empty working set and
// returns its identifier.
func (s *SessionStore) NewSession() string {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{lastAccess: s.now()}

	s.logger.Info("session created", slog.String("session_id", id))
	return id
}

// Get returns the working set for a session. The second return value
// reports whether the session exists.
func (s *SessionStore) Get(id string) (domain.WorkingSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.WorkingSet{}, false
	}
	sess.lastAccess = s.now()
	return sess.workingSet, true
}

// Append unions newly parsed findings into a session's working set,
// creating the session if the identifier is unknown (for example when
// the server restarted under an open browser tab).
func (s *SessionStore) Append(id string, findings []domain.Finding) domain.WorkingSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.workingSet.Findings = append(sess.workingSet.Findings, findings...)
	sess.lastAccess = s.now()
	return sess.workingSet
}

// Reset discards a session's working set. The session itself survives
// so the client can keep uploading under the same identifier.
func (s *SessionStore) Reset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.workingSet = domain.WorkingSet{}
	sess.lastAccess = s.now()
	return true
}

// Count returns the number of live sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle removes sessions that have not been touched within the
// idle TTL and returns how many were removed.
func (s *SessionStore) EvictIdle() int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastAccess.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("evicted idle sessions", slog.Int("count", evicted))
	}
	return evicted
}

// StartEviction runs EvictIdle on the given interval until stop is
// closed. Intended to be launched once from application startup.
func (s *SessionStore) StartEviction(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.EvictIdle()
		case <-stop:
			return
		}
	}
}
