package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
)

func ComposeReply(
	ctx context.Context,
	in *GraphState,
	supervisor contractx.Supervisor,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply, err := supervisor.Compose(ctx, contractx.ComposeRequest{
		UserMessage: in.Text,
		History:     in.History,
		Findings:    in.Findings,
	})
	if err != nil {
		return nil, err
	}
	in.Message = reply
	return in, nil
}
