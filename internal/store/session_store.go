package store

import (
	"sync"
	"time"

	"quiz-session-service/internal/models"
)

// SessionStore holds in-flight quiz sessions keyed by token. It is safe for
// concurrent use by request handlers and the background sweep. Stored
// sessions are treated as immutable; callers must not mutate what Get
// returns.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.QuizSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*models.QuizSession)}
}

func (s *SessionStore) Put(session *models.QuizSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = session
}

func (s *SessionStore) Get(token string) (*models.QuizSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	return session, ok
}

// Take removes and returns the session in one step. Under concurrent
// duplicate submissions for the same token exactly one caller gets the
// session; the rest observe a miss.
func (s *SessionStore) Take(token string) (*models.QuizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if ok {
		delete(s.sessions, token)
	}
	return session, ok
}

func (s *SessionStore) Remove(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// EvictExpired drops every session whose expiry is not after now and
// returns how many were removed.
func (s *SessionStore) EvictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			evicted++
		}
	}
	return evicted
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
