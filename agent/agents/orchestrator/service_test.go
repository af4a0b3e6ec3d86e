package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	statex "github.com/tanpawarit/chative-sei/agent/state"
)

type fakeStore struct {
	loadState *statex.SessionState
	loadErr   error
	saveErr   error
	saved     []*statex.SessionState
	deleted   []string
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.loadState == nil {
		return nil, statex.ErrStateNotFound
	}
	return cloneSessionState(f.loadState), nil
}

func (f *fakeStore) Save(ctx context.Context, st *statex.SessionState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, cloneSessionState(st))
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	f.deleted = append(f.deleted, sessionID)
	return nil
}

type fakeSupervisor struct {
	route      contractx.RouteResponse
	routeErr   error
	reply      string
	composeErr error

	routeReqs   []contractx.RouteRequest
	composeReqs []contractx.ComposeRequest
}

func (f *fakeSupervisor) Route(ctx context.Context, req contractx.RouteRequest) (contractx.RouteResponse, error) {
	f.routeReqs = append(f.routeReqs, req)
	if f.routeErr != nil {
		return contractx.RouteResponse{}, f.routeErr
	}
	return f.route, nil
}

func (f *fakeSupervisor) Compose(ctx context.Context, req contractx.ComposeRequest) (string, error) {
	f.composeReqs = append(f.composeReqs, req)
	if f.composeErr != nil {
		return "", f.composeErr
	}
	return f.reply, nil
}

type fakeSpecialist struct {
	responses []contractx.SpecialistResponse
	repeat    bool
	err       error
	calls     int
	lastReqs  []contractx.SpecialistRequest
}

func (f *fakeSpecialist) Run(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	f.calls++
	f.lastReqs = append(f.lastReqs, req)
	if f.err != nil {
		return contractx.SpecialistResponse{}, f.err
	}
	idx := f.calls - 1
	if f.repeat && len(f.responses) > 0 {
		idx = 0
	}
	if idx >= len(f.responses) {
		return contractx.SpecialistResponse{}, fmt.Errorf("no specialist response left at call=%d", f.calls)
	}
	return f.responses[idx], nil
}

type toolCallRecord struct {
	agentType string
	reqs      []contractx.ToolRequest
}

type fakeTools struct {
	results []contractx.ToolResult
	err     error
	calls   []toolCallRecord
}

func (f *fakeTools) Execute(ctx context.Context, agentType string, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	f.calls = append(f.calls, toolCallRecord{
		agentType: agentType,
		reqs:      append([]contractx.ToolRequest(nil), reqs...),
	})
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeRegistry struct {
	supervisor *fakeSupervisor
	researcher *fakeSpecialist
}

func (f *fakeRegistry) Supervisor() contractx.Supervisor {
	return f.supervisor
}

func (f *fakeRegistry) Researcher() contractx.Specialist {
	return f.researcher
}

func TestHandleMessageInvalidInput(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t,
		&fakeStore{},
		&fakeRegistry{supervisor: &fakeSupervisor{}, researcher: &fakeSpecialist{}},
		&fakeTools{},
		Config{},
	)

	_, err := o.HandleMessage(context.Background(), "   ", "olá")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	_, err = o.HandleMessage(context.Background(), "s1", "    ")
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestHandleMessageDirectRoute(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	supervisor := &fakeSupervisor{
		route: contractx.RouteResponse{Route: contractx.RouteDirect, Reply: "Olá! Posso consultar processos do SEI para você."},
	}
	researcher := &fakeSpecialist{}
	tools := &fakeTools{}

	o := newTestOrchestrator(t, store, &fakeRegistry{supervisor: supervisor, researcher: researcher}, tools, Config{})

	out, err := o.Handle(context.Background(), "session-1", "", "Olá")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if out.Reply != "Olá! Posso consultar processos do SEI para você." {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
	if out.Route != contractx.RouteDirect {
		t.Fatalf("unexpected route: %s", out.Route)
	}
	if researcher.calls != 0 {
		t.Fatalf("researcher must not run on direct route, got %d calls", researcher.calls)
	}
	if len(supervisor.composeReqs) != 0 {
		t.Fatalf("compose must not run on direct route")
	}
	if len(tools.calls) != 0 {
		t.Fatalf("expected no tool calls, got %d", len(tools.calls))
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(store.saved))
	}
	saved := store.saved[0]
	if len(saved.Turns) != 2 || saved.Turns[0].Role != statex.RoleUser || saved.Turns[1].Role != statex.RoleAssistant {
		t.Fatalf("unexpected saved turns: %#v", saved.Turns)
	}
	if saved.ChannelType != "chat" {
		t.Fatalf("unexpected channel type: %s", saved.ChannelType)
	}
}

func TestHandleMessageResearchToolLoop(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	supervisor := &fakeSupervisor{
		route: contractx.RouteResponse{Route: contractx.RouteResearch, Task: "verificar o processo 00166/2025"},
		reply: "Sim, o processo 00166/2025 existe.",
	}
	researcher := &fakeSpecialist{
		responses: []contractx.SpecialistResponse{
			{
				ToolRequests: []contractx.ToolRequest{
					{Tool: "search_process", Args: map[string]any{"process_number": "00166/2025"}},
				},
			},
			{Message: "search_process retornou exists=true para SEI_00166_2025"},
		},
	}
	tools := &fakeTools{
		results: []contractx.ToolResult{
			{Tool: "search_process", Result: map[string]any{"exists": true}},
		},
	}

	o := newTestOrchestrator(t, store, &fakeRegistry{supervisor: supervisor, researcher: researcher}, tools, Config{})

	out, err := o.Handle(context.Background(), "session-1", "api", "O processo 00166/2025 existe?")
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if out.Reply != "Sim, o processo 00166/2025 existe." {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}
	if out.ToolCalls != 1 {
		t.Fatalf("expected 1 tool call, got %d", out.ToolCalls)
	}
	if researcher.calls != 2 {
		t.Fatalf("expected researcher called twice, got %d", researcher.calls)
	}
	if len(tools.calls) != 1 || tools.calls[0].agentType != string(contractx.AgentTypeResearcher) {
		t.Fatalf("unexpected tool calls: %#v", tools.calls)
	}

	second := researcher.lastReqs[1]
	if second.Round != 1 || len(second.ToolResults) != 1 {
		t.Fatalf("second round must carry tool results: %#v", second)
	}
	if second.Task != "verificar o processo 00166/2025" {
		t.Fatalf("unexpected task: %q", second.Task)
	}
	if len(supervisor.composeReqs) != 1 || supervisor.composeReqs[0].Findings != "search_process retornou exists=true para SEI_00166_2025" {
		t.Fatalf("unexpected compose requests: %#v", supervisor.composeReqs)
	}
	if len(store.saved) != 1 || store.saved[0].ChannelType != "api" {
		t.Fatalf("unexpected saves: %#v", store.saved)
	}
}

func TestHandleMessageToolBudget(t *testing.T) {
	t.Parallel()

	supervisor := &fakeSupervisor{
		route: contractx.RouteResponse{Route: contractx.RouteResearch, Task: "x"},
		reply: "unused",
	}
	researcher := &fakeSpecialist{
		repeat: true,
		responses: []contractx.SpecialistResponse{
			{ToolRequests: []contractx.ToolRequest{{Tool: "search_process", Args: map[string]any{"process_number": "1/2024"}}}},
		},
	}
	tools := &fakeTools{results: []contractx.ToolResult{{Tool: "search_process"}}}
	store := &fakeStore{}

	o := newTestOrchestrator(t, store, &fakeRegistry{supervisor: supervisor, researcher: researcher}, tools, Config{MaxToolRounds: 2})

	_, err := o.HandleMessage(context.Background(), "session-1", "loop")
	if !errors.Is(err, contractx.ErrToolBudget) {
		t.Fatalf("expected ErrToolBudget, got %v", err)
	}
	if len(tools.calls) != 2 {
		t.Fatalf("expected 2 tool rounds, got %d", len(tools.calls))
	}
	last := researcher.lastReqs[len(researcher.lastReqs)-1]
	if !last.FinalRound {
		t.Fatal("last researcher call must be a final round")
	}
	if len(store.saved) != 0 {
		t.Fatalf("failed turn must not be saved, got %d saves", len(store.saved))
	}
}

func TestHandleMessageHistoryWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := statex.NewSessionState("session-1", "chat", now)
	for i := 0; i < 6; i++ {
		if err := st.Append(statex.RoleUser, fmt.Sprintf("pergunta %d", i), now); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if err := st.Append(statex.RoleAssistant, fmt.Sprintf("resposta %d", i), now); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	store := &fakeStore{loadState: st}
	supervisor := &fakeSupervisor{route: contractx.RouteResponse{Route: contractx.RouteDirect, Reply: "ok"}}

	o := newTestOrchestrator(t, store, &fakeRegistry{supervisor: supervisor, researcher: &fakeSpecialist{}}, &fakeTools{}, Config{HistoryWindow: 4})

	if _, err := o.HandleMessage(context.Background(), "session-1", "e agora?"); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	history := supervisor.routeReqs[0].History
	if len(history) != 4 {
		t.Fatalf("expected 4 history turns, got %d", len(history))
	}
	if history[3].Content != "resposta 5" {
		t.Fatalf("history must end with the latest turn, got %q", history[3].Content)
	}
	if got := len(store.saved[0].Turns); got != 14 {
		t.Fatalf("expected 14 saved turns, got %d", got)
	}
}

func TestHandleMessageRouteErrorPropagates(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	supervisor := &fakeSupervisor{routeErr: fmt.Errorf("%w: boom", contractx.ErrModelInvoke)}

	o := newTestOrchestrator(t, store, &fakeRegistry{supervisor: supervisor, researcher: &fakeSpecialist{}}, &fakeTools{}, Config{})

	_, err := o.HandleMessage(context.Background(), "session-1", "oi")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected no save, got %d", len(store.saved))
	}
}

func TestHandleMessageEmptyFindings(t *testing.T) {
	t.Parallel()

	supervisor := &fakeSupervisor{route: contractx.RouteResponse{Route: contractx.RouteResearch, Task: "x"}}
	researcher := &fakeSpecialist{responses: []contractx.SpecialistResponse{{Message: "   "}}}

	o := newTestOrchestrator(t, &fakeStore{}, &fakeRegistry{supervisor: supervisor, researcher: researcher}, &fakeTools{}, Config{})

	_, err := o.HandleMessage(context.Background(), "session-1", "oi")
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestHandleMessageSaveErrorPropagates(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("save failed")
	store := &fakeStore{saveErr: saveErr}
	supervisor := &fakeSupervisor{route: contractx.RouteResponse{Route: contractx.RouteDirect, Reply: "ok"}}

	o := newTestOrchestrator(t, store, &fakeRegistry{supervisor: supervisor, researcher: &fakeSpecialist{}}, &fakeTools{}, Config{})

	_, err := o.HandleMessage(context.Background(), "session-1", "oi")
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	o := newTestOrchestrator(t, store, &fakeRegistry{supervisor: &fakeSupervisor{}, researcher: &fakeSpecialist{}}, &fakeTools{}, Config{})

	if err := o.Reset(context.Background(), "session-1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "session-1" {
		t.Fatalf("unexpected deletes: %#v", store.deleted)
	}
}

func newTestOrchestrator(
	t *testing.T,
	store statex.Store,
	registry contractx.Registry,
	tools contractx.ToolGateway,
	cfg Config,
) *Orchestrator {
	t.Helper()
	o, err := New(store, registry, tools, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func cloneSessionState(in *statex.SessionState) *statex.SessionState {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}
	var out statex.SessionState
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}
