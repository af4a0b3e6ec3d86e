package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	casestorex "github.com/tanpawarit/chative-sei/agent/casestore"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
)

const (
	ToolSearchProcess   = "search_process"
	ToolListDocuments   = "get_document_list_from_process"
	ToolDocumentsByType = "get_document_by_type"
)

// Result codes carried by contract.ToolResult.Code.
const (
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeUnknownTool        = "unknown_tool"
	CodeStorageUnavailable = "storage_unavailable"
)

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

func BuildForAgent(agentType contractx.AgentType, lookup *casestorex.Lookup) ([]*schema.ToolInfo, Executor) {
	return InfosForAgent(agentType), NewExecutor(agentType, lookup)
}

func NewExecutor(agentType contractx.AgentType, lookup *casestorex.Lookup) Executor {
	fallback := DefaultExecutor(agentType)
	if agentType != contractx.AgentTypeResearcher || lookup == nil {
		return fallback
	}
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolSearchProcess:
			return executeSearchProcess(ctx, lookup, tool, args)
		case ToolListDocuments:
			return executeListDocuments(ctx, lookup, tool, args)
		case ToolDocumentsByType:
			return executeDocumentsByType(ctx, lookup, tool, args)
		default:
			return fallback(ctx, tool, args)
		}
	}
}

func DefaultExecutor(agentType contractx.AgentType) Executor {
	return func(ctx context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Code:  CodeUnknownTool,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agentType),
		}, nil
	}
}

// InfosForAgent describes the tools bound to an agent's chat model.
func InfosForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	switch agentType {
	case contractx.AgentTypeResearcher:
		return []*schema.ToolInfo{
			{
				Name: ToolSearchProcess,
				Desc: "Verifica se um processo SEI existe. Use antes de responder se um processo existe.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"process_number": {Type: schema.String, Desc: "Número do processo no formato NNNNN/AAAA, ex: 00166/2025", Required: true},
				}),
			},
			{
				Name: ToolListDocuments,
				Desc: "Lista os documentos de um processo SEI em ordem, com o total de documentos. Aceita paginação.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"process_number": {Type: schema.String, Desc: "Número do processo no formato NNNNN/AAAA", Required: true},
					"limit":          {Type: schema.Integer, Desc: "Quantidade máxima de documentos a retornar; 0 retorna todos"},
					"offset":         {Type: schema.Integer, Desc: "Quantidade de documentos a pular a partir do início"},
				}),
			},
			{
				Name: ToolDocumentsByType,
				Desc: "Lista os documentos de um determinado tipo (ex: Anexo, Ofício, Despacho) de um processo SEI.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"process_number": {Type: schema.String, Desc: "Número do processo no formato NNNNN/AAAA", Required: true},
					"document_type":  {Type: schema.String, Desc: "Tipo do documento; maiúsculas e acentos são ignorados", Required: true},
				}),
			},
		}
	default:
		return nil
	}
}
