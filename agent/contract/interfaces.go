package contract

import "context"

// Supervisor decides who answers a user message and rewrites specialist
// findings into the final reply.
type Supervisor interface {
	Route(ctx context.Context, req RouteRequest) (RouteResponse, error)
	Compose(ctx context.Context, req ComposeRequest) (string, error)
}

type Specialist interface {
	Run(ctx context.Context, req SpecialistRequest) (SpecialistResponse, error)
}

type Registry interface {
	Supervisor() Supervisor
	Researcher() Specialist
}

type ToolGateway interface {
	Execute(ctx context.Context, agentType string, reqs []ToolRequest) ([]ToolResult, error)
}
