package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// InMemoryStore keeps sessions in process memory. Used by the terminal chat
// and as the default backend of the HTTP server.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	maxTurns int
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore(maxTurns int) *InMemoryStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &InMemoryStore{
		sessions: make(map[string][]byte),
		maxTurns: maxTurns,
	}
}

func (s *InMemoryStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, ErrInvalidSession
	}

	s.mu.RLock()
	raw, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}

	var st SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &st, nil
}

// Save stores a snapshot; later mutations of st are not visible to Load.
func (s *InMemoryStore) Save(ctx context.Context, st *SessionState) error {
	if err := prepareForSave(st, s.maxTurns); err != nil {
		return err
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	s.mu.Lock()
	s.sessions[strings.TrimSpace(st.SessionID)] = raw
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, sessionID string) error {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ErrInvalidSession
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}
