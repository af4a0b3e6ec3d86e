package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
)

func RouteRequest(
	ctx context.Context,
	in *GraphState,
	supervisor contractx.Supervisor,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	route, err := supervisor.Route(ctx, contractx.RouteRequest{
		UserMessage: in.Text,
		History:     in.History,
	})
	if err != nil {
		return nil, err
	}

	in.Route = route
	if route.Route == contractx.RouteDirect {
		in.Message = route.Reply
	}
	return in, nil
}

// IsDirect reports whether the supervisor answered without the researcher.
func IsDirect(in *GraphState) bool {
	return in != nil && in.Route.Route == contractx.RouteDirect
}
