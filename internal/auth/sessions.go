package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Session is one delegated user's login. Sessions expire after the store TTL;
// an expired session silently degrades the user to the service identity.
type Session struct {
	ID        string
	Email     string
	Token     *oauth2.Token
	CreatedAt time.Time
}

// SessionStore provides thread-safe in-memory session storage with TTL.
// Sessions are the only in-process state the server holds, and losing them is
// harmless: users just sign in again.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stopChan chan struct{}
}

// NewSessionStore creates a SessionStore with the given TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
}

// Create registers a new session and returns it.
func (s *SessionStore) Create(email string, token *oauth2.Token) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		Email:     email,
		Token:     token,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session for id, or false if it is unknown or expired.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Since(sess.CreatedAt) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	return sess, true
}

// Delete removes a session. Unknown ids are a no-op.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// StartCleanup starts a background goroutine that periodically removes
// expired sessions.
func (s *SessionStore) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.cleanup()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// StopCleanup stops the background cleanup goroutine.
func (s *SessionStore) StopCleanup() {
	close(s.stopChan)
}

func (s *SessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.CreatedAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
