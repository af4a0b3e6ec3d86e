package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Message)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: reply is empty", contractx.ErrValidation)
	}
	return GraphOutput{
		Reply:     reply,
		Route:     in.Route.Route,
		ToolCalls: len(in.ToolResults),
	}, nil
}
