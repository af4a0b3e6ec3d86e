package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orchestratorx "github.com/tanpawarit/chative-sei/agent/agents/orchestrator"
	casestorex "github.com/tanpawarit/chative-sei/agent/casestore"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	statex "github.com/tanpawarit/chative-sei/agent/state"
	metricsx "github.com/tanpawarit/chative-sei/pkg/metrics"
)

type fakeChatter struct {
	result   orchestratorx.Result
	err      error
	sessions []string
	channels []string
	resets   []string
}

func (f *fakeChatter) Handle(ctx context.Context, sessionID, channelType, text string) (orchestratorx.Result, error) {
	f.sessions = append(f.sessions, sessionID)
	f.channels = append(f.channels, channelType)
	if f.err != nil {
		return orchestratorx.Result{}, f.err
	}
	if strings.TrimSpace(text) == "" {
		return orchestratorx.Result{}, orchestratorx.ErrInvalidMessage
	}
	return f.result, nil
}

func (f *fakeChatter) Reset(ctx context.Context, sessionID string) error {
	f.resets = append(f.resets, sessionID)
	return nil
}

func newTestApp(t *testing.T, chatter Chatter) (*fiber.App, string) {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "SEI_00242_2024")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"0001_Anexo.pdf", "0002_Ofício.pdf", "0003_Anexo.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "SEI_00166_2025"), 0o755))

	store, err := casestorex.New(root)
	require.NoError(t, err)
	lookup, err := casestorex.NewLookup(store)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	recorder, err := metricsx.NewWithRegistry(reg, reg)
	require.NoError(t, err)
	recorder.ObserveTurn("http", nil)

	app := NewApp(Config{BodyLimit: 4096}, Deps{
		Lookup:   lookup,
		Chat:     chatter,
		Recorder: recorder,
	})
	return app, root
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestSearchProcessEndpoint(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t, &fakeChatter{})

	resp, raw := doJSON(t, app, http.MethodGet, "/processes/166/2025", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found casestorex.SearchResult
	require.NoError(t, json.Unmarshal(raw, &found))
	assert.True(t, found.Exists)
	assert.Equal(t, "00166/2025", found.ProcessNumber)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	resp, raw = doJSON(t, app, http.MethodGet, "/processes/99999/1999", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var missing casestorex.SearchResult
	require.NoError(t, json.Unmarshal(raw, &missing))
	assert.False(t, missing.Exists)

	resp, raw = doJSON(t, app, http.MethodGet, "/processes/abc/2025", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "invalid_input", payload.Error.Code)
}

func TestListDocumentsEndpoint(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t, &fakeChatter{})

	resp, raw := doJSON(t, app, http.MethodGet, "/processes/00242/2024/documents?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list casestorex.DocumentList
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 3, list.Total)
	require.Len(t, list.Documents, 2)
	assert.Equal(t, "0002_Ofício.pdf", list.Documents[0].Name)

	resp, raw = doJSON(t, app, http.MethodGet, "/processes/00242/2024/documents?type=anexo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 2, list.Total)

	resp, _ = doJSON(t, app, http.MethodGet, "/processes/12345/2000/documents", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/processes/00242/2024/documents?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/processes/00242/2024/documents?offset=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = doJSON(t, app, http.MethodGet, "/processes/00166/2025/documents", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Documents)
}

func TestStorageFailureIsServiceUnavailable(t *testing.T) {
	t.Parallel()

	app, root := newTestApp(t, &fakeChatter{})
	require.NoError(t, os.RemoveAll(root))

	resp, raw := doJSON(t, app, http.MethodGet, "/processes/00242/2024", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "storage_unavailable", payload.Error.Code)
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	chatter := &fakeChatter{
		result: orchestratorx.Result{Reply: "O processo existe.", Route: contractx.RouteResearch, ToolCalls: 1},
	}
	app, _ := newTestApp(t, chatter)

	resp, raw := doJSON(t, app, http.MethodPost, "/chat", chatRequest{SessionID: "s-1", Message: "O processo 166/2025 existe?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out chatResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "s-1", out.SessionID)
	assert.Equal(t, "O processo existe.", out.Reply)
	assert.Equal(t, 1, out.ToolCalls)
	assert.Equal(t, []string{"http"}, chatter.channels)

	resp, raw = doJSON(t, app, http.MethodPost, "/chat", chatRequest{Message: "oi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotEmpty(t, out.SessionID, "session id must be generated")

	resp, _ = doJSON(t, app, http.MethodPost, "/chat", chatRequest{SessionID: "s-1", Message: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/chat/s-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"s-1"}, chatter.resets)
}

func TestChatModelFailureIsBadGateway(t *testing.T) {
	t.Parallel()

	chatter := &fakeChatter{err: fmt.Errorf("%w: timeout", contractx.ErrModelInvoke)}
	app, _ := newTestApp(t, chatter)

	resp, raw := doJSON(t, app, http.MethodPost, "/chat", chatRequest{Message: "oi"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, codeUpstream, payload.Error.Code)
}

func TestChatSessionStoreFailureIsServiceUnavailable(t *testing.T) {
	t.Parallel()

	chatter := &fakeChatter{err: fmt.Errorf("save state: %w: connection refused", statex.ErrBackend)}
	app, _ := newTestApp(t, chatter)

	resp, raw := doJSON(t, app, http.MethodPost, "/chat", chatRequest{Message: "oi"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, codeSessionStore, payload.Error.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t, &fakeChatter{})

	resp, _ := doJSON(t, app, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "sei_chat_turns_total")

	resp, raw = doJSON(t, app, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "not_found", payload.Error.Code)
}

func TestPanickingHandlerReturnsInternalError(t *testing.T) {
	t.Parallel()

	app := NewApp(Config{}, Deps{})
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, raw := doJSON(t, app, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var payload errorPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, codeInternal, payload.Error.Code)

	resp, _ = doJSON(t, app, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListDocumentsHugeLimit(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t, &fakeChatter{})

	resp, raw := doJSON(t, app, http.MethodGet, "/processes/242/2024/documents?limit=9223372036854775807&offset=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list casestorex.DocumentList
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 3, list.Total)
	assert.Len(t, list.Documents, 2)
}

func TestHealthReportsLoading(t *testing.T) {
	t.Parallel()

	app := NewApp(Config{}, Deps{Ready: func() bool { return false }})
	resp, _ := doJSON(t, app, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
