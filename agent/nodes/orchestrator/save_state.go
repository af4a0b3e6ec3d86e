package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	statex "github.com/tanpawarit/chative-sei/agent/state"
)

// SaveState records the exchange. A turn without a reply is not saved.
func SaveState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("%w: reply is empty", contractx.ErrValidation)
	}

	if err := in.Session.Append(statex.RoleUser, in.Text, in.Now); err != nil {
		return nil, err
	}
	if err := in.Session.Append(statex.RoleAssistant, in.Message, in.Now); err != nil {
		return nil, err
	}
	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Session); err != nil {
		return nil, err
	}

	return in, nil
}
