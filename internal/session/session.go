// Package session keeps the per-user state of an in-progress flow. Nothing
// here is written to the record store; losing it only loses uncommitted input.
package session

import (
	"context"
	"sync"
	"time"
)

type FlowName string

// Data is the typed record a flow collects. Each flow has its own type.
type Data interface {
	Flow() FlowName
}

type Session struct {
	UserID    string
	Flow      FlowName
	Step      string
	Data      Data
	StartedAt time.Time
}

func New(userID string, flow FlowName, entry string, data Data) *Session {
	return &Session{UserID: userID, Flow: flow, Step: entry, Data: data, StartedAt: time.Now().UTC()}
}

func (s *Session) Advance(step string) { s.Step = step }

// Store holds at most one session per user.
type Store interface {
	// Get returns nil, nil when the user has no session.
	Get(ctx context.Context, userID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Clear(ctx context.Context, userID string) error
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewMemoryStore keeps sessions in process. A zero ttl never expires them.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{sessions: map[string]*Session{}, ttl: ttl}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && time.Since(s.StartedAt) > m.ttl {
		delete(m.sessions, userID)
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.UserID] = &cp
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Len is the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
