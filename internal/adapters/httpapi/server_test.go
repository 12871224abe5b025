package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/llmtxt/internal/core/apperr"
	"github.com/example/llmtxt/internal/ctxutil"
	"github.com/example/llmtxt/internal/metrics"
	"github.com/example/llmtxt/internal/ports/primary"
)

// principalSeen records the identity a service call observed.
type principalSeen struct {
	owner     string
	canManage bool
}

func observe(ctx context.Context) principalSeen {
	return principalSeen{owner: ctxutil.OwnerFromContext(ctx), canManage: ctxutil.CanManageFromContext(ctx)}
}

type mockArtifacts struct {
	seen     principalSeen
	lastKind string
	lastSave primary.SaveRequest
	err      error
}

func (m *mockArtifacts) CheckFilesExist(ctx context.Context, kind string) (*primary.FilesExistResponse, error) {
	m.seen, m.lastKind = observe(ctx), kind
	if m.err != nil {
		return nil, m.err
	}
	return &primary.FilesExistResponse{Exists: true, Names: []string{"llm.txt"}}, nil
}

func (m *mockArtifacts) SaveToRoot(ctx context.Context, req primary.SaveRequest) (*primary.SaveResponse, error) {
	m.seen, m.lastSave = observe(ctx), req
	if m.err != nil {
		return nil, m.err
	}
	return &primary.SaveResponse{
		Message:        "File saved successfully to website root. Backup created: llm.txt.backup.x",
		FilesSaved:     []primary.SavedFile{{Name: "llm.txt", URL: "https://example.com/llm.txt", Path: "/srv/www/llm.txt"}},
		BackupsCreated: []string{"llm.txt.backup.x"},
		HistoryID:      9,
	}, nil
}

type mockHistory struct {
	err     error
	entries []*primary.HistoryEntry
	lastID  int64
}

func (m *mockHistory) GetHistory(ctx context.Context) ([]*primary.HistoryEntry, error) {
	return m.entries, m.err
}

func (m *mockHistory) GetHistoryItem(ctx context.Context, id int64) (*primary.HistoryEntry, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return &primary.HistoryEntry{ID: id, SourceURL: "u", OutputKind: "summary", SummarizedContent: "S",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}, nil
}

func (m *mockHistory) DeleteHistoryItem(ctx context.Context, id int64) (*primary.DeleteResponse, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return &primary.DeleteResponse{Message: "History item already deleted", FilesDeleted: []string{}, FilesFailed: []string{}}, nil
}

type mockGeneration struct {
	last primary.GenerateRequest
}

func (m *mockGeneration) Generate(ctx context.Context, req primary.GenerateRequest) (*primary.GenerateResponse, error) {
	m.last = req
	return &primary.GenerateResponse{JobID: "job-1", SummaryText: "# S", ZipMode: true, ZipData: []byte("PK")}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer() (*Server, *mockArtifacts, *mockHistory, *mockGeneration) {
	a, h, g := &mockArtifacts{}, &mockHistory{}, &mockGeneration{}
	return NewServer(Services{Artifacts: a, History: h, Generation: g}, "default", nil, nil), a, h, g
}

func do(t *testing.T, s *Server, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

var manager = map[string]string{HeaderOwnerID: "7", HeaderCanManage: "true"}

func TestServer_Healthz(t *testing.T) {
	s, _, _, _ := newTestServer()
	rec, _ := do(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_FilesExist(t *testing.T) {
	s, a, _, _ := newTestServer()

	rec, env := do(t, s, http.MethodGet, "/api/files/exists?output_type=llms_txt", "", manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"files_exist":true,"existing_files":["llm.txt"]}`, string(env.Data))
	assert.Equal(t, "llms_txt", a.lastKind)
	assert.Equal(t, principalSeen{owner: "7", canManage: true}, a.seen)
}

func TestServer_Principal(t *testing.T) {
	s, a, _, _ := newTestServer()

	do(t, s, http.MethodGet, "/api/files/exists", "", nil)
	assert.Equal(t, principalSeen{owner: "default", canManage: false}, a.seen)
	assert.Equal(t, "summary", a.lastKind)

	do(t, s, http.MethodGet, "/api/files/exists", "", map[string]string{HeaderOwnerID: "12", HeaderCanManage: "1"})
	assert.Equal(t, principalSeen{owner: "12", canManage: true}, a.seen)
}

func TestServer_Save(t *testing.T) {
	s, a, _, _ := newTestServer()
	body := `{"output_type":"llms_both","confirm_overwrite":true,"website_url":"https://example.com","summarized_content":"S","full_content":"F"}`

	rec, env := do(t, s, http.MethodPost, "/api/save", body, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, primary.SaveRequest{
		Kind: "llms_both", ConfirmOverwrite: true, SourceURL: "https://example.com", Summarized: "S", Full: "F",
	}, a.lastSave)

	var resp saveResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, []string{"llm.txt"}, resp.FilesSaved)
	assert.Equal(t, []string{"llm.txt.backup.x"}, resp.BackupsCreated)
	assert.Equal(t, "https://example.com/llm.txt", resp.Files[0].FileURL)
	assert.Equal(t, int64(9), resp.HistoryID)
}

func TestServer_Save_BadBody(t *testing.T) {
	s, _, _, _ := newTestServer()
	rec, env := do(t, s, http.MethodPost, "/api/save", "{", manager)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid request body", env.Error)
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{apperr.ErrLockTimeout, http.StatusTooManyRequests},
		{apperr.ErrPermissionDenied, http.StatusForbidden},
		{fmt.Errorf("%w: no content to save", apperr.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("history item 4: %w", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: disk full", apperr.ErrFilesystem), http.StatusInternalServerError},
		{fmt.Errorf("%w: locked", apperr.ErrDatabase), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s, a, _, _ := newTestServer()
			a.err = tt.err
			rec, env := do(t, s, http.MethodPost, "/api/save", `{"output_type":"summary","content":"A"}`, manager)
			assert.Equal(t, tt.code, rec.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestServer_PermissionMessage(t *testing.T) {
	s, a, _, _ := newTestServer()
	a.err = apperr.ErrPermissionDenied
	_, env := do(t, s, http.MethodGet, "/api/files/exists", "", nil)
	assert.Equal(t, "Insufficient permissions", env.Error)
}

func TestServer_History(t *testing.T) {
	s, _, h, _ := newTestServer()
	h.entries = []*primary.HistoryEntry{{ID: 2, SourceURL: "u", OutputKind: "both", SummarizedContent: "hidden"}}

	rec, env := do(t, s, http.MethodGet, "/api/history", "", manager)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []historyItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Empty(t, items[0].SummarizedContent, "list omits content")
	assert.Equal(t, []string{}, items[0].FilePaths)

	rec, env = do(t, s, http.MethodGet, "/api/history/5", "", manager)
	require.Equal(t, http.StatusOK, rec.Code)
	var item historyItem
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, int64(5), item.ID)
	assert.Equal(t, "S", item.SummarizedContent)
	assert.Equal(t, "2025-06-01T12:00:00Z", item.CreatedAt)

	rec, env = do(t, s, http.MethodDelete, "/api/history/5", "", manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"History item already deleted","files_deleted":[],"files_failed":[]}`, string(env.Data))
}

func TestServer_History_InvalidID(t *testing.T) {
	s, _, h, _ := newTestServer()
	for _, id := range []string{"abc", "0", "-1"} {
		rec, env := do(t, s, http.MethodDelete, "/api/history/"+id, "", manager)
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
		assert.Equal(t, "Invalid history ID", env.Error)
	}
	assert.Zero(t, h.lastID)
}

func TestServer_Generate(t *testing.T) {
	s, _, _, g := newTestServer()
	body := `{"website_url":"https://example.com","output_type":"llms_txt","save":true}`

	rec, env := do(t, s, http.MethodPost, "/api/generate", body, manager)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "llms_txt", g.last.Kind)
	assert.True(t, g.last.Save)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "# S", resp.LLMsText)
	assert.Equal(t, "504b", resp.ZipData)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	collector.HistoryInserts.Inc()

	s := NewServer(Services{}, "default", reg, nil)
	rec, _ := do(t, s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "llmtxt_history_inserts_total 1")
}
