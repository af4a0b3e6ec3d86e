package contract

import (
	statex "github.com/tanpawarit/chative-sei/agent/state"
)

type AgentType string

const (
	AgentTypeSupervisor AgentType = "supervisor"
	AgentTypeResearcher AgentType = "sei_research_agent"
)

// Route values returned by the supervisor.
const (
	RouteResearch = string(AgentTypeResearcher)
	RouteDirect   = "direct"
)

type RouteRequest struct {
	UserMessage string        `json:"user_message"`
	History     []statex.Turn `json:"history,omitempty"`
}

type RouteResponse struct {
	Route string `json:"route"`
	Task  string `json:"task,omitempty"`
	Reply string `json:"reply,omitempty"`
}

type ComposeRequest struct {
	UserMessage string        `json:"user_message"`
	History     []statex.Turn `json:"history,omitempty"`
	Findings    string        `json:"findings"`
}

type SpecialistRequest struct {
	Task        string        `json:"task"`
	UserMessage string        `json:"user_message"`
	History     []statex.Turn `json:"history,omitempty"`
	ToolResults []ToolResult  `json:"tool_results,omitempty"`
	Round       int           `json:"round"`
	// FinalRound asks for an answer from the results gathered so far.
	FinalRound  bool          `json:"final_round,omitempty"`
}

type SpecialistResponse struct {
	Message      string        `json:"message"`
	ToolRequests []ToolRequest `json:"tool_requests,omitempty"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}
