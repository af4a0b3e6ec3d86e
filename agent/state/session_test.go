package state

import (
	"errors"
	"testing"
	"time"
)

func TestSessionStateAppendAndRecent(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	st := NewSessionState("s1", "cli", now)

	if err := st.Append(RoleUser, "O processo 166/2025 existe?", now); err != nil {
		t.Fatalf("Append(user) error = %v", err)
	}
	if err := st.Append(RoleAssistant, "Sim, o processo existe.", now.Add(time.Second)); err != nil {
		t.Fatalf("Append(assistant) error = %v", err)
	}
	if err := st.Append(RoleUser, "   ", now); !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("expected ErrInvalidTurn for empty content, got %v", err)
	}
	if err := st.Append(Role("tool"), "x", now); !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("expected ErrInvalidTurn for unknown role, got %v", err)
	}

	recent := st.Recent(1)
	if len(recent) != 1 || recent[0].Role != RoleAssistant {
		t.Fatalf("unexpected recent turns: %#v", recent)
	}
	recent[0].Content = "mutated"
	if st.Turns[1].Content == "mutated" {
		t.Fatal("Recent must return a copy")
	}
	if got := len(st.Recent(0)); got != 2 {
		t.Fatalf("Recent(0) len = %d, want 2", got)
	}
	if !st.UpdatedAt.Equal(now.Add(time.Second)) {
		t.Fatalf("UpdatedAt = %v, want %v", st.UpdatedAt, now.Add(time.Second))
	}
}

func TestSessionStateTrim(t *testing.T) {
	t.Parallel()

	now := time.Now()
	st := NewSessionState("s2", "cli", now)
	for _, msg := range []string{"a", "b", "c", "d"} {
		if err := st.Append(RoleUser, msg, now); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	st.Trim(2)
	if len(st.Turns) != 2 || st.Turns[0].Content != "c" || st.Turns[1].Content != "d" {
		t.Fatalf("unexpected turns after trim: %#v", st.Turns)
	}
}

func TestSessionStateValidate(t *testing.T) {
	t.Parallel()

	st := &SessionState{}
	if err := st.Validate(); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	st = &SessionState{SessionID: "s3", Turns: []Turn{{Role: RoleUser}}}
	if err := st.Validate(); !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("expected ErrInvalidTurn, got %v", err)
	}
}
