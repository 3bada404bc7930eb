// Package sessions keeps the server-side state behind the web session cookie.
//
// The session is an auxiliary mechanism next to the bearer-token lineage: it
// is created on login and torn down on logout as an independent, idempotent
// operation — session failures never roll back token revocation and vice
// versa.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/Rakgl/Own-Pro-Api/internal/common"
)

// Session is one live cookie-backed web session. CSRFToken is the
// anti-forgery secret handed to the client; it rotates on logout so a
// captured value dies with the session.
type Session struct {
	ID        string
	UserID    string
	CSRFToken string
	CreatedAt time.Time
}

// Store is an in-process session registry guarded by a mutex.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty session Store. A nil now falls back to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{sessions: make(map[string]*Session), now: now}
}

// Create opens a session for userID and returns it with fresh id and
// anti-forgery token.
func (s *Store) Create(_ context.Context, userID string) (*Session, error) {
	id, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	csrf, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}

	sess := &Session{ID: id, UserID: userID, CSRFToken: csrf, CreatedAt: s.now()}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return sess, nil
}

// Get returns the session with the given id, or common.ErrorNotFound.
func (s *Store) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return sess, nil
}

// Invalidate removes the session. Removing an unknown id is not an error:
// logout must stay idempotent.
func (s *Store) Invalidate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// RotateCSRF replaces the anti-forgery token of an existing session and
// returns the new value. Unknown ids return common.ErrorNotFound.
func (s *Store) RotateCSRF(_ context.Context, id string) (string, error) {
	csrf, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	sess.CSRFToken = csrf
	return csrf, nil
}
