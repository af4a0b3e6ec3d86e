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
	toolx "github.com/tanpawarit/chative-sei/agent/tool"
)

// researcherImpl answers questions about SEI processes with the lookup tools.
type researcherImpl struct {
	agentType        contractx.AgentType
	structuredRunner compose.Runnable[map[string]any, researcherLLMOutput]
	toolRunner       compose.Runnable[map[string]any, *schema.Message]
	runtimeRunner    compose.Runnable[contractx.SpecialistRequest, contractx.SpecialistResponse]
	allowedTools     map[string]struct{}
}

type researcherLLMOutput struct {
	Message string `json:"message"`
}

func newResearcher(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
) (*researcherImpl, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: researcher prompt", contractx.ErrPromptMissing)
	}
	agentType := contractx.AgentTypeResearcher

	structuredRunner, err := compileResearcherStructuredGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile structured researcher graph: %v", contractx.ErrModelInvoke, err)
	}

	tools := toolx.InfosForAgent(agentType)
	toolModel, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, agentType, err)
	}
	toolRunner, err := compileTextGraph(ctx, toolModel, systemPrompt, "researcher.tool_planning_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile tool planning graph: %v", contractx.ErrModelInvoke, err)
	}

	allowedTools := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowedTools[t.Name] = struct{}{}
	}

	r := &researcherImpl{
		agentType:        agentType,
		structuredRunner: structuredRunner,
		toolRunner:       toolRunner,
		allowedTools:     allowedTools,
	}

	runtimeRunner, err := compileResearcherRuntimeGraph(ctx, r.runToolPlanning, r.runFinalize)
	if err != nil {
		return nil, fmt.Errorf("%w: compile researcher runtime graph: %v", contractx.ErrModelInvoke, err)
	}
	r.runtimeRunner = runtimeRunner

	return r, nil
}

func (r *researcherImpl) Run(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	if strings.TrimSpace(req.Task) == "" && strings.TrimSpace(req.UserMessage) == "" {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: task or user message is required", contractx.ErrValidation)
	}

	out, err := r.runtimeRunner.Invoke(ctx, req)
	if err != nil {
		return contractx.SpecialistResponse{}, err
	}

	for _, tr := range out.ToolRequests {
		if _, ok := r.allowedTools[tr.Tool]; !ok {
			return contractx.SpecialistResponse{}, fmt.Errorf("%w: tool=%s is not allowed for agent=%s", contractx.ErrSchemaViolation, tr.Tool, r.agentType)
		}
	}
	return out, nil
}

// runFinalize answers without tools once the round budget is spent.
func (r *researcherImpl) runFinalize(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	input, err := buildResearchInput("finalize", req)
	if err != nil {
		return contractx.SpecialistResponse{}, err
	}

	out, err := r.structuredRunner.Invoke(ctx, map[string]any{
		"input": input,
	})
	if err != nil {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: researcher invoke: %v", contractx.ErrModelInvoke, err)
	}

	message := strings.TrimSpace(out.Message)
	if message == "" {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: researcher message is empty", contractx.ErrSchemaViolation)
	}
	return contractx.SpecialistResponse{Message: message}, nil
}

func (r *researcherImpl) runToolPlanning(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	input, err := buildResearchInput("act", req)
	if err != nil {
		return contractx.SpecialistResponse{}, err
	}

	msg, err := r.toolRunner.Invoke(ctx, map[string]any{
		"input": input,
	})
	if err != nil {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: tool planning invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: empty tool planning response", contractx.ErrSchemaViolation)
	}

	toolRequests, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return contractx.SpecialistResponse{}, err
	}

	if len(toolRequests) == 0 {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			return contractx.SpecialistResponse{}, fmt.Errorf("%w: response has neither tool calls nor content", contractx.ErrSchemaViolation)
		}
		return contractx.SpecialistResponse{Message: content}, nil
	}

	return contractx.SpecialistResponse{
		Message:      strings.TrimSpace(msg.Content),
		ToolRequests: toolRequests,
	}, nil
}

func buildResearchInput(mode string, req contractx.SpecialistRequest) (string, error) {
	task := strings.TrimSpace(req.Task)
	if task == "" {
		task = strings.TrimSpace(req.UserMessage)
	}

	payload := map[string]any{
		"mode":         mode,
		"task":         task,
		"user_message": req.UserMessage,
		"history":      summarizeHistory(req.History),
		"round":        req.Round,
		"tool_results": req.ToolResults,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal researcher payload: %v", contractx.ErrValidation, err)
	}
	return string(raw), nil
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			Tool: tool,
			Args: args,
		})
	}
	return reqs, nil
}
