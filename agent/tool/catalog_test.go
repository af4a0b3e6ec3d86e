package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	casestorex "github.com/tanpawarit/chative-sei/agent/casestore"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
)

func newTestLookup(t *testing.T) (*casestorex.Lookup, string) {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "SEI_00242_2024")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"0001_Anexo.pdf", "0002_Ofício.pdf", "0003_Anexo.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "SEI_00166_2025"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	store, err := casestorex.New(root)
	if err != nil {
		t.Fatalf("casestore.New() error = %v", err)
	}
	lookup, err := casestorex.NewLookup(store)
	if err != nil {
		t.Fatalf("NewLookup() error = %v", err)
	}
	return lookup, root
}

func TestBuildForAgentResearcher(t *testing.T) {
	t.Parallel()

	lookup, _ := newTestLookup(t)
	infos, executor := BuildForAgent(contractx.AgentTypeResearcher, lookup)
	if len(infos) != 3 {
		t.Fatalf("expected 3 tool infos, got %d", len(infos))
	}
	want := []string{ToolSearchProcess, ToolListDocuments, ToolDocumentsByType}
	for i, name := range want {
		if infos[i].Name != name {
			t.Fatalf("tool %d: expected %s, got %s", i, name, infos[i].Name)
		}
	}
	if executor == nil {
		t.Fatal("executor must not be nil")
	}
}

func TestInfosForSupervisorIsEmpty(t *testing.T) {
	t.Parallel()

	if infos := InfosForAgent(contractx.AgentTypeSupervisor); len(infos) != 0 {
		t.Fatalf("supervisor must not get tools, got %d", len(infos))
	}
}

func TestDefaultExecutorUnavailableMessage(t *testing.T) {
	t.Parallel()

	executor := DefaultExecutor(contractx.AgentTypeSupervisor)
	out, err := executor(context.Background(), ToolSearchProcess, map[string]any{"process_number": "1/2024"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tool != ToolSearchProcess {
		t.Fatalf("unexpected tool: %s", out.Tool)
	}
	if out.Code != CodeUnknownTool || out.Error == "" {
		t.Fatalf("expected unknown_tool with message, got %#v", out)
	}
}

func TestExecutorSearchProcess(t *testing.T) {
	t.Parallel()

	lookup, _ := newTestLookup(t)
	executor := NewExecutor(contractx.AgentTypeResearcher, lookup)

	out, err := executor(context.Background(), ToolSearchProcess, map[string]any{"process_number": "00166/2025"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, ok := out.Result.(casestorex.SearchResult)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}
	if !res.Exists || res.Identifier != "SEI_00166_2025" {
		t.Fatalf("unexpected result: %#v", res)
	}

	out, err = executor(context.Background(), ToolSearchProcess, map[string]any{"process_number": "99999/1999"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Code != "" {
		t.Fatalf("missing process must not carry a code, got %s", out.Code)
	}
	if res := out.Result.(casestorex.SearchResult); res.Exists {
		t.Fatal("expected exists=false")
	}
}

func TestExecutorInvalidInput(t *testing.T) {
	t.Parallel()

	lookup, _ := newTestLookup(t)
	executor := NewExecutor(contractx.AgentTypeResearcher, lookup)

	cases := []struct {
		name string
		tool string
		args map[string]any
	}{
		{name: "missing number", tool: ToolSearchProcess, args: map[string]any{}},
		{name: "number not a string", tool: ToolSearchProcess, args: map[string]any{"process_number": 166.0}},
		{name: "malformed number", tool: ToolListDocuments, args: map[string]any{"process_number": "abc"}},
		{name: "negative limit", tool: ToolListDocuments, args: map[string]any{"process_number": "242/2024", "limit": -1.0}},
		{name: "fractional offset", tool: ToolListDocuments, args: map[string]any{"process_number": "242/2024", "offset": 1.5}},
		{name: "empty type", tool: ToolDocumentsByType, args: map[string]any{"process_number": "242/2024", "document_type": "  "}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out, err := executor(context.Background(), tc.tool, tc.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Code != CodeInvalidInput {
				t.Fatalf("expected %s, got %#v", CodeInvalidInput, out)
			}
			if out.Error == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestExecutorListDocuments(t *testing.T) {
	t.Parallel()

	lookup, _ := newTestLookup(t)
	executor := NewExecutor(contractx.AgentTypeResearcher, lookup)

	out, err := executor(context.Background(), ToolListDocuments, map[string]any{
		"process_number": "00242/2024",
		"limit":          2.0,
		"offset":         "1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := out.Result.(casestorex.DocumentList)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}
	if list.Total != 3 {
		t.Fatalf("expected total 3, got %d", list.Total)
	}
	if len(list.Documents) != 2 || list.Documents[0].Name != "0002_Ofício.pdf" {
		t.Fatalf("unexpected page: %#v", list.Documents)
	}

	out, err = executor(context.Background(), ToolListDocuments, map[string]any{"process_number": "12345/2000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Code != CodeNotFound {
		t.Fatalf("expected %s, got %#v", CodeNotFound, out)
	}
}

func TestExecutorDocumentsByType(t *testing.T) {
	t.Parallel()

	lookup, _ := newTestLookup(t)
	executor := NewExecutor(contractx.AgentTypeResearcher, lookup)

	out, err := executor(context.Background(), ToolDocumentsByType, map[string]any{
		"process_number": "242/2024",
		"document_type":  "oficio",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := out.Result.(casestorex.DocumentList)
	if len(list.Documents) != 1 || list.Documents[0].Name != "0002_Ofício.pdf" {
		t.Fatalf("unexpected documents: %#v", list.Documents)
	}
}

func TestExecutorStorageFailureIsError(t *testing.T) {
	t.Parallel()

	lookup, root := newTestLookup(t)
	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("remove root: %v", err)
	}
	executor := NewExecutor(contractx.AgentTypeResearcher, lookup)

	_, err := executor(context.Background(), ToolSearchProcess, map[string]any{"process_number": "242/2024"})
	if err == nil {
		t.Fatal("expected storage error")
	}
}
