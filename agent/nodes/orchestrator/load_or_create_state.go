package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	statex "github.com/tanpawarit/chative-sei/agent/state"
)

// LoadOrCreateState loads the session and snapshots the last historyWindow
// turns, taken before the current message is recorded.
func LoadOrCreateState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	channelType string,
	historyWindow int,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.ChannelType == "" {
		in.ChannelType = channelType
	}

	st, err := loadOrCreateState(ctx, store, in.SessionID, in.ChannelType, in.Now)
	if err != nil {
		return nil, err
	}
	in.Session = st
	in.History = st.Recent(historyWindow)
	return in, nil
}

func loadOrCreateState(
	ctx context.Context,
	store statex.Store,
	sessionID string,
	channelType string,
	now time.Time,
) (*statex.SessionState, error) {
	st, err := store.Load(ctx, sessionID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, statex.ErrStateNotFound) {
		return nil, err
	}

	return statex.NewSessionState(sessionID, channelType, now), nil
}
