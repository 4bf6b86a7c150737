package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"exam-review-service/internal/engine"
)

// SessionManager creates and tracks live quiz sessions. Each session is owned
// by exactly one caller (one connection); the manager only hands out lookups
// and removes terminal sessions.
type SessionManager struct {
	source engine.QuestionSource
	store  engine.ResultStore
	opts   []engine.Option

	mu       sync.RWMutex
	sessions map[string]*engine.Session
}

func NewSessionManager(source engine.QuestionSource, store engine.ResultStore, opts ...engine.Option) *SessionManager {
	return &SessionManager{
		source:   source,
		store:    store,
		opts:     opts,
		sessions: make(map[string]*engine.Session),
	}
}

// Start builds a session for quizID and runs it. A failed start retains
// nothing: the caller observes the error and no session ID is issued.
func (m *SessionManager) Start(ctx context.Context, quizID int64, opts ...engine.Option) (string, *engine.Session, error) {
	session := engine.NewSession(m.source, m.store, append(m.opts, opts...)...)
	if err := session.Start(ctx, quizID); err != nil {
		return "", nil, err
	}

	id := newSessionID()
	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()
	return id, session, nil
}

func (m *SessionManager) Get(id string) (*engine.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Remove drops a session from tracking, cancelling it first if still running.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok && !session.Terminal() {
		_ = session.Cancel()
	}
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(buf)
}
