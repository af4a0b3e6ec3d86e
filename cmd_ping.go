package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	llmx "github.com/tanpawarit/chative-sei/agent/llm"
	configx "github.com/tanpawarit/chative-sei/pkg/config"
	openrouterx "github.com/tanpawarit/chative-sei/pkg/openrouter"
)

var pingTimeout time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured models are reachable",
	RunE:  runPing,
}

func init() {
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 15*time.Second, "timeout per endpoint")
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return fmt.Errorf("load llm config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	var failed bool
	for _, role := range []contractx.AgentType{contractx.AgentTypeSupervisor, contractx.AgentTypeResearcher} {
		modelCfg := cfg.OpenRouterFor(role)

		ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
		served, err := openrouterx.Ping(ctx, openrouterx.NewClient(modelCfg), modelCfg.Model)
		cancel()

		switch {
		case err != nil:
			failed = true
			bad.Fprintf(out, "%-20s %s at %s: %v\n", role, modelCfg.Model, modelCfg.BaseURL, err)
		case !served:
			failed = true
			bad.Fprintf(out, "%-20s %s is not served by %s\n", role, modelCfg.Model, modelCfg.BaseURL)
		default:
			ok.Fprintf(out, "%-20s %s ok\n", role, modelCfg.Model)
		}
	}

	if failed {
		return errors.New("one or more models are unreachable")
	}
	return nil
}
