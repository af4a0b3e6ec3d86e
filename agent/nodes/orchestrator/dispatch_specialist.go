package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
)

// DispatchSpecialist runs the researcher until it answers without tool
// requests. The round after maxRounds tool rounds is a final round in which
// the researcher must answer from what it has.
func DispatchSpecialist(
	ctx context.Context,
	in *GraphState,
	researcher contractx.Specialist,
	tools contractx.ToolGateway,
	maxRounds int,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.Route.Route != contractx.RouteResearch {
		return nil, fmt.Errorf("%w: route=%q is not dispatchable", contractx.ErrValidation, in.Route.Route)
	}

	for round := 0; ; round++ {
		resp, err := researcher.Run(ctx, contractx.SpecialistRequest{
			Task:        in.Route.Task,
			UserMessage: in.Text,
			History:     in.History,
			ToolResults: in.ToolResults,
			Round:       round,
			FinalRound:  round >= maxRounds,
		})
		if err != nil {
			return nil, err
		}

		if len(resp.ToolRequests) == 0 {
			findings := strings.TrimSpace(resp.Message)
			if findings == "" {
				return nil, fmt.Errorf("%w: researcher returned empty message", contractx.ErrSchemaViolation)
			}
			in.Findings = findings
			in.Rounds = round
			return in, nil
		}
		if round >= maxRounds {
			return nil, fmt.Errorf("%w: %d rounds", contractx.ErrToolBudget, round)
		}

		results, err := tools.Execute(ctx, string(contractx.AgentTypeResearcher), resp.ToolRequests)
		if err != nil {
			return nil, err
		}
		in.ToolResults = append(in.ToolResults, results...)
	}
}
