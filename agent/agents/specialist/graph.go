package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
)

func compileRouterGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, routerLLMOutput], error) {
	runner, err := compileStructuredLLMGraph[routerLLMOutput](ctx, chatModel, systemPrompt, "supervisor.route_graph")
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}

func compileResearcherStructuredGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, researcherLLMOutput], error) {
	runner, err := compileStructuredLLMGraph[researcherLLMOutput](ctx, chatModel, systemPrompt, "researcher.structured_graph")
	if err != nil {
		return nil, fmt.Errorf("compile researcher structured graph: %w", err)
	}
	return runner, nil
}

// compileTextGraph is prompt -> model; the caller reads msg.Content.
func compileTextGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add %s prompt node: %w", graphName, err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add %s model node: %w", graphName, err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add %s edge start->prompt: %w", graphName, err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add %s edge prompt->model: %w", graphName, err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add %s edge model->end: %w", graphName, err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

type researcherGraphState struct {
	Req      contractx.SpecialistRequest
	Finalize bool
}

func compileResearcherRuntimeGraph(
	ctx context.Context,
	toolFlow func(context.Context, contractx.SpecialistRequest) (contractx.SpecialistResponse, error),
	finalizeFlow func(context.Context, contractx.SpecialistRequest) (contractx.SpecialistResponse, error),
) (compose.Runnable[contractx.SpecialistRequest, contractx.SpecialistResponse], error) {
	graph := compose.NewGraph[contractx.SpecialistRequest, contractx.SpecialistResponse]()

	if err := graph.AddLambdaNode("validate_and_prepare",
		compose.InvokableLambda(func(ctx context.Context, req contractx.SpecialistRequest) (*researcherGraphState, error) {
			if strings.TrimSpace(req.Task) == "" && strings.TrimSpace(req.UserMessage) == "" {
				return nil, fmt.Errorf("%w: task or user message is required", contractx.ErrValidation)
			}
			if req.Round < 0 {
				return nil, fmt.Errorf("%w: round must be >= 0", contractx.ErrValidation)
			}
			return &researcherGraphState{
				Req:      req,
				Finalize: req.FinalRound,
			}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add researcher runtime validate node: %w", err)
	}

	if err := graph.AddLambdaNode("tool_path",
		compose.InvokableLambda(func(ctx context.Context, in *researcherGraphState) (contractx.SpecialistResponse, error) {
			if in == nil {
				return contractx.SpecialistResponse{}, fmt.Errorf("%w: researcher graph state is nil", contractx.ErrValidation)
			}
			return toolFlow(ctx, in.Req)
		}),
	); err != nil {
		return nil, fmt.Errorf("add researcher runtime tool node: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_path",
		compose.InvokableLambda(func(ctx context.Context, in *researcherGraphState) (contractx.SpecialistResponse, error) {
			if in == nil {
				return contractx.SpecialistResponse{}, fmt.Errorf("%w: researcher graph state is nil", contractx.ErrValidation)
			}
			return finalizeFlow(ctx, in.Req)
		}),
	); err != nil {
		return nil, fmt.Errorf("add researcher runtime finalize node: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *researcherGraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: researcher graph state is nil", contractx.ErrValidation)
			}
			if in.Finalize {
				return "finalize_path", nil
			}
			return "tool_path", nil
		},
		map[string]bool{
			"tool_path":     true,
			"finalize_path": true,
		},
	)

	if err := graph.AddBranch("validate_and_prepare", branch); err != nil {
		return nil, fmt.Errorf("add researcher runtime branch: %w", err)
	}
	if err := graph.AddEdge(compose.START, "validate_and_prepare"); err != nil {
		return nil, fmt.Errorf("add researcher runtime edge start->validate: %w", err)
	}
	if err := graph.AddEdge("tool_path", compose.END); err != nil {
		return nil, fmt.Errorf("add researcher runtime edge tool->end: %w", err)
	}
	if err := graph.AddEdge("finalize_path", compose.END); err != nil {
		return nil, fmt.Errorf("add researcher runtime edge finalize->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("researcher.runtime_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile researcher runtime graph: %w", err)
	}
	return runner, nil
}

func compileStructuredLLMGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, T], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	parser := schema.NewMessageJSONParser[T](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, T]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add structured prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add structured model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add structured parser node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add structured edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add structured edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "parse_json"); err != nil {
		return nil, fmt.Errorf("add structured edge model->parse: %w", err)
	}
	if err := graph.AddEdge("parse_json", compose.END); err != nil {
		return nil, fmt.Errorf("add structured edge parse->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile structured graph: %w", err)
	}
	return runner, nil
}
