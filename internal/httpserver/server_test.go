package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shelf/internal/clipboard"
	"github.com/MrSnakeDoc/shelf/internal/debounce"
	"github.com/MrSnakeDoc/shelf/internal/discovery"
	"github.com/MrSnakeDoc/shelf/internal/dispatch"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/export"
	"github.com/MrSnakeDoc/shelf/internal/fetcher"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/store"
	"github.com/MrSnakeDoc/shelf/internal/store/memory"
)

type stubFetcher map[string]string

func (s stubFetcher) Fetch(_ context.Context, rawURL string) (fetcher.Result, error) {
	for id, name := range s {
		if strings.HasSuffix(rawURL, "/items/"+id) {
			return fetcher.Result{Name: name}, nil
		}
	}
	return fetcher.Result{}, &domain.FetchError{URL: rawURL, Status: http.StatusNotFound, Err: errors.New("not found")}
}

type testServer struct {
	handler http.Handler
	deps    deps.Deps
	backend *memory.Backend
	sink    *clipboard.Buffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.New("error", false)
	backend := memory.New()
	items := store.New(backend, log)
	sink := clipboard.NewBuffer()
	d := dispatch.New(dispatch.Config{MaxConcurrent: 2}, log)

	dep := deps.Deps{
		Logger:     log,
		StartTime:  time.Now(),
		Version:    "test",
		Items:      items,
		Exports:    export.New(items, sink, export.Options{}, log),
		Batch:      discovery.NewBatch(items, d, stubFetcher{"111": "Winter Coat"}, 0, log),
		Dispatcher: d,
		Renames: debounce.New(time.Hour, func(ctx context.Context, id, name string) error {
			return items.Rename(ctx, id, name)
		}, log),
	}
	return &testServer{handler: NewRouter(log, dep), deps: dep, backend: backend, sink: sink}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type pageBody struct {
	Page      string        `json:"page"`
	Items     []domain.Item `json:"items"`
	Kept      int           `json:"kept"`
	Pending   int           `json:"pending"`
	Dismissed int           `json:"dismissed"`
}

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestProbes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"memory"`)

	rec = s.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready":true`)

	rec = s.do(t, http.MethodGet, "/infra", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"operational"`)
}

func TestManualAdd(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"7","name":"Scarf"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[struct {
		Item domain.Item `json:"item"`
		Page pageBody    `json:"page"`
	}](t, rec)
	assert.Equal(t, domain.CategoryPending, body.Item.Category)
	assert.Equal(t, 1, body.Page.Pending)

	rec = s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"7","name":"Scarf"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[errorBody](t, rec).Code)

	writes := s.backend.Writes()
	rec = s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"abc","name":"Bad"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, writes, s.backend.Writes())

	rec = s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStorageFailureMapsTo503(t *testing.T) {
	s := newTestServer(t)
	s.backend.SetWriteHook(func(string, []byte) error { return errors.New("quota exceeded") })

	rec := s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"7","name":"Scarf"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "storage_write", decode[errorBody](t, rec).Code)
}

func TestExcludeRestore(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"7","name":"Scarf"}`).Code)

	rec := s.do(t, http.MethodPost, "/api/pages/42/items/7/exclude", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[pageBody](t, rec).Dismissed)

	rec = s.do(t, http.MethodPost, "/api/pages/42/items/7/restore", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageBody](t, rec)
	assert.Equal(t, 1, page.Pending)
	assert.Zero(t, page.Dismissed)

	rec = s.do(t, http.MethodPost, "/api/pages/42/items/7/restore", "")
	require.Equal(t, http.StatusBadRequest, rec.Code, "restoring a pending item is rejected")
}

func TestRenameIsDebounced(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"7","name":"Scarf"}`).Code)
	writes := s.backend.Writes()

	for _, name := range []string{"S", "Sc", "Scarf (red)"} {
		rec := s.do(t, http.MethodPatch, "/api/items/7", `{"name":"`+name+`"}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	assert.Equal(t, writes, s.backend.Writes(), "nothing written during the quiet period")
	assert.Equal(t, 1, s.deps.Renames.Pending())

	s.deps.Renames.Flush(context.Background())
	assert.Equal(t, writes+1, s.backend.Writes())

	page := decode[pageBody](t, s.do(t, http.MethodGet, "/api/pages/42/items", ""))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Scarf (red)", page.Items[0].Name)

	rec := s.do(t, http.MethodPatch, "/api/items/7", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCandidatesAndFetch(t *testing.T) {
	s := newTestServer(t)
	text := `see https://booth.pm/ja/items/111 and https://shop.booth.pm/items/222?x=1 and https://booth.pm/ja/items/42`

	writes := s.backend.Writes()
	rec := s.do(t, http.MethodPost, "/api/pages/42/candidates", `{"text":`+jsonString(text)+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cands := decode[struct {
		Found      int                   `json:"found"`
		Candidates []discovery.Candidate `json:"candidates"`
	}](t, rec)
	assert.Equal(t, 2, cands.Found)
	assert.Len(t, cands.Candidates, 2)
	assert.Equal(t, writes, s.backend.Writes())

	rec = s.do(t, http.MethodPost, "/api/pages/42/fetch", `{"text":`+jsonString(text)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Summary discovery.Summary `json:"summary"`
		Page    pageBody          `json:"page"`
	}](t, rec)
	assert.Equal(t, discovery.OutcomePartial, body.Summary.Outcome)
	require.Len(t, body.Summary.ManualEntry, 1)
	assert.Equal(t, "222", body.Summary.ManualEntry[0].ID)
	assert.Equal(t, 1, body.Page.Pending)

	rec = s.do(t, http.MethodPost, "/api/pages/42/candidates", `{"text":`+jsonString(text)+`}`)
	assert.Len(t, decode[struct {
		Candidates []discovery.Candidate `json:"candidates"`
	}](t, rec).Candidates, 1, "stored candidate is filtered out")
}

func TestPageExport(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/pages/42/export", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "empty_export", decode[errorBody](t, rec).Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"7","name":"Scarf"}`).Code)

	rec = s.do(t, http.MethodPost, "/api/pages/42/export", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Success bool     `json:"success"`
		Text    string   `json:"text"`
		Page    pageBody `json:"page"`
	}](t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, "Scarf", body.Text)
	assert.Equal(t, "Scarf", s.sink.Last())
	assert.Equal(t, 1, body.Page.Kept)

	rec = s.do(t, http.MethodPost, "/api/pages/43/export", "")
	require.Equal(t, http.StatusOK, rec.Code, "kept items are exported from every page")
	assert.Equal(t, "Scarf", s.sink.Last())
}

func TestClipboardFailureMapsTo502(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"7","name":"Scarf"}`).Code)
	s.sink.FailWith(errors.New("no display"))

	rec := s.do(t, http.MethodPost, "/api/pages/42/export", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "clipboard", decode[errorBody](t, rec).Code)
}

func TestCategoryExportAndRollback(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"7","name":"Scarf"}`).Code)

	rec := s.do(t, http.MethodPost, "/api/export/unsaved?format=urls&persist=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "https://booth.pm/ja/items/7")

	rec = s.do(t, http.MethodPost, "/api/export/kept?format=yaml", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/rollback", `{"items":[{"id":"7","name":"Scarf","category":"pending","ownerPageId":"42"}],"target":"pending"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"rollback_count":1`)

	page := decode[pageBody](t, s.do(t, http.MethodGet, "/api/pages/42/items", ""))
	assert.Equal(t, 1, page.Pending)

	rec = s.do(t, http.MethodPost, "/api/rollback", `{"items":[{"id":"7"}],"target":"dismissed"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportHistoryStats(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/import", `{"items":[{"id":12,"name":"Gloves"},{"id":"13"}],"version":"1.0"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"imported":1`)
	assert.Contains(t, rec.Body.String(), `"invalid":1`)

	rec = s.do(t, http.MethodPost, "/api/import?mode=merge", `{"items":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/import", `{"version":"1.0"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/history?format=grouped", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Gloves"`)

	rec = s.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[store.Stats](t, rec)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, 1, stats.History)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/history", "").Code)
	rec = s.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteItem(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/pages/42/items", `{"id":"7","name":"Scarf"}`).Code)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/items/7", "").Code)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/items/7", "").Code)

	page := decode[pageBody](t, s.do(t, http.MethodGet, "/api/pages/42/items", ""))
	assert.Empty(t, page.Items)
}

func TestAuditDisabled(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/audit", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestAPIGroupIsHostGuarded(t *testing.T) {
	s := newTestServer(t)
	s.deps.AllowedHosts = []string{"shelf.local"}
	h := NewRouter(s.deps.Logger, s.deps)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode[errorBody](t, rec).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Host = "shelf.local:8080"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
