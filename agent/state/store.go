package state

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrStateNotFound   = errors.New("session state not found")
	ErrNilSessionState = errors.New("session state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
	ErrBackend         = errors.New("session backend unavailable")
)

// Store is the persistence contract used by the orchestrator.
type Store interface {
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, st *SessionState) error
	Delete(ctx context.Context, sessionID string) error
}

// prepareForSave normalizes a state before any backend writes it.
func prepareForSave(st *SessionState, maxTurns int) error {
	if st == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(st.SessionID) == "" {
		return ErrInvalidSession
	}
	if st.Version <= 0 {
		st.Version = 1
	}
	st.Trim(maxTurns)
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	} else {
		st.UpdatedAt = st.UpdatedAt.UTC()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = st.UpdatedAt
	}
	return st.Validate()
}
