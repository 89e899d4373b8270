package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/faqstudio/backend/internal/domain/catalog"
	"github.com/faqstudio/backend/internal/infra/categoryfile"
	"github.com/faqstudio/backend/internal/infra/config"
	"github.com/faqstudio/backend/internal/infra/embedding"
	"github.com/faqstudio/backend/internal/infra/entryrepo"
	"github.com/faqstudio/backend/internal/infra/exportlog"
	"github.com/faqstudio/backend/internal/infra/vectorindex"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHTTPConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
}

func newServerUnderTest(t *testing.T, cfg *config.Config) *http.Server {
	t.Helper()
	logger := newTestLogger()
	dir := t.TempDir()

	embedder := embedding.NewDeterministic(16)
	repo := entryrepo.NewMemoryRepository()
	exportLog, err := exportlog.NewFileLog(filepath.Join(dir, "questions.json"))
	require.NoError(t, err)
	index := vectorindex.NewMemoryIndex()
	registry, err := categoryfile.NewRegistry(filepath.Join(dir, "categories.json"), []string{"tahakkuk", "tahsilat", "diger"})
	require.NoError(t, err)

	catalogCfg := catalog.Config{DefaultThreshold: 0.85, DefaultTopK: 3, MaxTopK: 10}
	mirrors := catalog.NewReconciler(exportLog, index, nil, time.Minute, logger)
	detector := catalog.NewDetector(catalogCfg, embedder, repo, nil, logger)
	coordinator := catalog.NewCoordinator(embedder, repo, mirrors, registry, logger)
	repair := catalog.NewRepair(catalogCfg, embedder, repo, exportLog, index, logger)

	handler := NewHandler(detector, coordinator, repair, logger)
	return NewRouter(cfg, handler, logger)
}

func doJSON(server *http.Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	server := newServerUnderTest(t, testHTTPConfig())

	rec := doJSON(server, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, float64(0), body["pending_mirror_ops"])
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_AddThenCheckDuplicate(t *testing.T) {
	server := newServerUnderTest(t, testHTTPConfig())

	rec := doJSON(server, http.MethodPost, "/add",
		`{"question":"Vergi borcumu nasıl öderim?","answer":"Online ödeme sayfasından.","category":"tahsilat"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var added map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	require.Equal(t, true, added["ok"])
	require.Equal(t, float64(1), added["id"])

	// the same question embeds identically, so it must come back a duplicate
	rec = doJSON(server, http.MethodPost, "/check-duplicate",
		`{"question":"Vergi borcumu nasıl öderim?"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report catalog.DuplicateReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.True(t, report.Duplicate)
	require.Len(t, report.Results, 1)
	require.InDelta(t, 1.0, report.Results[0].Similarity, 1e-6)
}

func TestRouter_CheckDuplicateBlankQuestion(t *testing.T) {
	server := newServerUnderTest(t, testHTTPConfig())

	rec := doJSON(server, http.MethodPost, "/check-duplicate", `{"question":"  "}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "invalid_input", body["error"]["code"])
}

func TestRouter_CheckDuplicateRejectsBadK(t *testing.T) {
	server := newServerUnderTest(t, testHTTPConfig())

	for _, k := range []string{"0", "11", "abc"} {
		rec := doJSON(server, http.MethodPost, "/check-duplicate?k="+k, `{"question":"hello"}`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, "k=%s", k)
	}
}

func TestRouter_DeleteMissingEntry(t *testing.T) {
	server := newServerUnderTest(t, testHTTPConfig())

	rec := doJSON(server, http.MethodDelete, "/questions/42", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "not_found", body["error"]["code"])
}

func TestRouter_AddListDelete(t *testing.T) {
	server := newServerUnderTest(t, testHTTPConfig())

	rec := doJSON(server, http.MethodPost, "/add",
		`{"question":"q1","answer":"a1","category":"diger"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(server, http.MethodGet, "/questions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	rec = doJSON(server, http.MethodGet, "/questions/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(server, http.MethodDelete, "/questions/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	require.Equal(t, float64(1), deleted["deleted_id"])
	require.Equal(t, true, deleted["json_updated"])

	rec = doJSON(server, http.MethodGet, "/questions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", rec.Body.String())
}

func TestRouter_CategoriesGrowOnAdd(t *testing.T) {
	server := newServerUnderTest(t, testHTTPConfig())

	rec := doJSON(server, http.MethodPost, "/add",
		`{"question":"q","answer":"a","category":"iade"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(server, http.MethodGet, "/categories.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var categories []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	require.Contains(t, categories, "iade")
	require.Contains(t, categories, "tahakkuk")
}

func TestRouter_StatsTotal(t *testing.T) {
	server := newServerUnderTest(t, testHTTPConfig())

	doJSON(server, http.MethodPost, "/add", `{"question":"q","answer":"a","category":"diger"}`, nil)

	rec := doJSON(server, http.MethodGet, "/stats/total", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(1), body["total"])
}

func TestRouter_AdminReplay(t *testing.T) {
	server := newServerUnderTest(t, testHTTPConfig())

	doJSON(server, http.MethodPost, "/add", `{"question":"q","answer":"a","category":"diger"}`, nil)

	rec := doJSON(server, http.MethodPost, "/admin/replay", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report catalog.RepairReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, 1, report.Total)
	// the entry already exists canonically, so replay skips it
	require.Equal(t, 1, report.Skipped)
}

func TestRouter_AuthGuardsMutatingRoutes(t *testing.T) {
	cfg := testHTTPConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, Secret: "test-secret"}
	server := newServerUnderTest(t, cfg)

	// reads stay open
	rec := doJSON(server, http.MethodGet, "/questions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(server, http.MethodPost, "/add", `{"question":"q","answer":"a","category":"diger"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(server, http.MethodPost, "/add", `{"question":"q","answer":"a","category":"diger"}`,
		map[string]string{"Authorization": "Bearer not-a-jwt"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "curator",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	rec = doJSON(server, http.MethodPost, "/add", `{"question":"q","answer":"a","category":"diger"}`,
		map[string]string{"Authorization": "Bearer " + signed})
	require.Equal(t, http.StatusOK, rec.Code)
}
