package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	statex "github.com/tanpawarit/chative-sei/agent/state"
)

type supervisorImpl struct {
	router   compose.Runnable[map[string]any, routerLLMOutput]
	composer compose.Runnable[map[string]any, *schema.Message]
}

type routerLLMOutput struct {
	Route string `json:"route"`
	Task  string `json:"task,omitempty"`
	Reply string `json:"reply,omitempty"`
}

func newSupervisor(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	routePrompt string,
	composePrompt string,
) (*supervisorImpl, error) {
	if strings.TrimSpace(routePrompt) == "" || strings.TrimSpace(composePrompt) == "" {
		return nil, fmt.Errorf("%w: supervisor prompts", contractx.ErrPromptMissing)
	}
	router, err := compileRouterGraph(ctx, chatModel, routePrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	composer, err := compileTextGraph(ctx, chatModel, composePrompt, "supervisor.compose_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &supervisorImpl{router: router, composer: composer}, nil
}

func (s *supervisorImpl) Route(ctx context.Context, req contractx.RouteRequest) (contractx.RouteResponse, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.RouteResponse{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	input, err := json.Marshal(map[string]any{
		"user_message": req.UserMessage,
		"history":      summarizeHistory(req.History),
	})
	if err != nil {
		return contractx.RouteResponse{}, fmt.Errorf("%w: marshal route payload: %v", contractx.ErrValidation, err)
	}

	out, err := s.router.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.RouteResponse{}, fmt.Errorf("%w: route invoke: %v", contractx.ErrModelInvoke, err)
	}

	return normalizeRoute(out, req.UserMessage)
}

func normalizeRoute(out routerLLMOutput, userMessage string) (contractx.RouteResponse, error) {
	resp := contractx.RouteResponse{
		Route: strings.TrimSpace(out.Route),
		Task:  strings.TrimSpace(out.Task),
		Reply: strings.TrimSpace(out.Reply),
	}

	switch resp.Route {
	case contractx.RouteResearch:
		if resp.Task == "" {
			resp.Task = strings.TrimSpace(userMessage)
		}
		resp.Reply = ""
	case contractx.RouteDirect:
		if resp.Reply == "" {
			return contractx.RouteResponse{}, fmt.Errorf("%w: direct route requires reply", contractx.ErrSchemaViolation)
		}
		resp.Task = ""
	default:
		return contractx.RouteResponse{}, fmt.Errorf("%w: unsupported route=%q", contractx.ErrSchemaViolation, resp.Route)
	}
	return resp, nil
}

func (s *supervisorImpl) Compose(ctx context.Context, req contractx.ComposeRequest) (string, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return "", fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	input, err := json.Marshal(map[string]any{
		"user_message": req.UserMessage,
		"history":      summarizeHistory(req.History),
		"findings":     req.Findings,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal compose payload: %v", contractx.ErrValidation, err)
	}

	msg, err := s.composer.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return "", fmt.Errorf("%w: compose invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: composed reply is empty", contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(msg.Content), nil
}

func summarizeHistory(turns []statex.Turn) []map[string]string {
	out := make([]map[string]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, map[string]string{
			"role":    string(t.Role),
			"content": t.Content,
		})
	}
	return out
}
