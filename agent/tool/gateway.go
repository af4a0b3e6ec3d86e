package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	casestorex "github.com/tanpawarit/chative-sei/agent/casestore"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	metricsx "github.com/tanpawarit/chative-sei/pkg/metrics"
)

// Gateway executes tool requests on behalf of specialists.
type Gateway struct {
	lookup   *casestorex.Lookup
	recorder *metricsx.Recorder
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(lookup *casestorex.Lookup, recorder *metricsx.Recorder) *Gateway {
	return &Gateway{lookup: lookup, recorder: recorder}
}

// Execute runs reqs in order. Executor failures become storage_unavailable
// results; only a done context aborts the batch.
func (g *Gateway) Execute(ctx context.Context, agentType string, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	executor := NewExecutor(contractx.AgentType(agentType), g.lookup)

	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		started := time.Now()
		out, err := executor(ctx, req.Tool, req.Args)
		took := time.Since(started)

		if err != nil {
			log.Error().Err(err).
				Str("agent", agentType).
				Str("tool", req.Tool).
				Msg("tool execution failed")
			out = contractx.ToolResult{
				Tool:  req.Tool,
				Code:  CodeStorageUnavailable,
				Error: fmt.Sprintf("armazenamento de processos indisponível: %v", err),
			}
		}
		if out.Tool == "" {
			out.Tool = req.Tool
		}

		g.recorder.ObserveTool(req.Tool, outcome(out), took)
		log.Debug().
			Str("agent", agentType).
			Str("tool", req.Tool).
			Str("code", out.Code).
			Dur("took", took).
			Msg("tool executed")

		results = append(results, out)
	}
	return results, nil
}

func outcome(r contractx.ToolResult) string {
	if r.Code == "" {
		return "ok"
	}
	return r.Code
}
