package specialist

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	llmx "github.com/tanpawarit/chative-sei/agent/llm"
	promptx "github.com/tanpawarit/chative-sei/agent/prompt"
)

type registryImpl struct {
	supervisor contractx.Supervisor
	researcher contractx.Specialist
}

func (r *registryImpl) Supervisor() contractx.Supervisor {
	return r.supervisor
}

func (r *registryImpl) Researcher() contractx.Specialist {
	return r.researcher
}

func NewRegistry(ctx context.Context, cfg llmx.Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	supervisorModelCfg := cfg.OpenRouterFor(contractx.AgentTypeSupervisor)
	supervisorModel, err := supervisorModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create supervisor model: %v", contractx.ErrModelInvoke, err)
	}
	researcherModelCfg := cfg.OpenRouterFor(contractx.AgentTypeResearcher)
	researcherModel, err := researcherModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create researcher model: %v", contractx.ErrModelInvoke, err)
	}

	supervisor, err := newSupervisor(ctx, supervisorModel, prompts.SupervisorRoute, prompts.SupervisorCompose)
	if err != nil {
		return nil, err
	}
	researcher, err := newResearcher(ctx, researcherModel, prompts.Researcher)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		supervisor: supervisor,
		researcher: researcher,
	}, nil
}
