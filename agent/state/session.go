package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionState is the persisted conversation of one chat session.
// Case data is never stored here; every answer is looked up again.
type SessionState struct {
	SessionID   string `json:"session_id"`
	ChannelType string `json:"channel_type"`

	Turns []Turn `json:"turns,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

const DefaultMaxTurns = 50

var (
	ErrInvalidTurn = errors.New("invalid turn")
)

func NewSessionState(sessionID, channelType string, now time.Time) *SessionState {
	return &SessionState{
		SessionID:   sessionID,
		ChannelType: channelType,
		Version:     1,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Append adds a turn. Empty content is rejected.
func (s *SessionState) Append(role Role, content string, now time.Time) error {
	if s == nil {
		return errors.New("nil session state")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: empty %s content", ErrInvalidTurn, role)
	}
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: role=%q", ErrInvalidTurn, role)
	}
	s.Turns = append(s.Turns, Turn{Role: role, Content: content, At: now.UTC()})
	s.Touch(now)
	return nil
}

// Recent returns a copy of the last n turns (all when n <= 0).
func (s *SessionState) Recent(n int) []Turn {
	if s == nil || len(s.Turns) == 0 {
		return nil
	}
	start := 0
	if n > 0 && len(s.Turns) > n {
		start = len(s.Turns) - n
	}
	return append([]Turn(nil), s.Turns[start:]...)
}

// Trim drops the oldest turns beyond max.
func (s *SessionState) Trim(max int) {
	if s == nil || max <= 0 || len(s.Turns) <= max {
		return
	}
	s.Turns = append([]Turn(nil), s.Turns[len(s.Turns)-max:]...)
}

func (s *SessionState) Validate() error {
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, t := range s.Turns {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return fmt.Errorf("%w: turn %d role=%q", ErrInvalidTurn, i, t.Role)
		}
		if strings.TrimSpace(t.Content) == "" {
			return fmt.Errorf("%w: turn %d is empty", ErrInvalidTurn, i)
		}
	}
	return nil
}
