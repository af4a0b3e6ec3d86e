package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	statex "github.com/tanpawarit/chative-sei/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID   string
	Text        string
	ChannelType string
}

type GraphOutput struct {
	Reply     string
	Route     string
	ToolCalls int
}

type GraphState struct {
	SessionID   string
	Text        string
	ChannelType string
	Now         time.Time

	Session *statex.SessionState
	History []statex.Turn
	Route   contractx.RouteResponse

	ToolResults []contractx.ToolResult
	Rounds      int
	Findings    string

	Message string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID:   sessionID,
		Text:        text,
		ChannelType: strings.TrimSpace(in.ChannelType),
		Now:         nowFn().UTC(),
	}, nil
}
