package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nrtkbb/nebula/keyword"
	"github.com/nrtkbb/nebula/logging"
	"github.com/nrtkbb/nebula/models"
	"github.com/nrtkbb/nebula/scanner"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e            *echo.Echo
	snapshotRoot string
}

func newTestServer(t *testing.T, load keyword.Loader) *testServer {
	t.Helper()
	if load == nil {
		load = func(context.Context) (*keyword.Extractor, error) {
			return keyword.NewExtractor(keyword.NewHashingEmbedder(128)), nil
		}
	}

	logger := logging.Discard()
	fsys := afero.NewOsFs()
	root := filepath.Join(t.TempDir(), "snapshots")
	inspector := scanner.NewInspector(fsys, logger)
	snapshotter := scanner.NewSnapshotter(fsys, inspector, root, logger)
	holder := keyword.NewModelHolder(load, logger)

	h := NewHandler(inspector, snapshotter, holder, keyword.DefaultTopN, logger)
	return &testServer{e: NewServer(h, logger), snapshotRoot: root}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func pathBody(t *testing.T, fields map[string]any) string {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	return string(data)
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Detail
}

func TestHealthAndRoot(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Nebula Client API"}`, rec.Body.String())
}

func TestInspectFolder_ReturnsEntries(t *testing.T) {
	s := newTestServer(t, nil)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "document.txt"), []byte("hello"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".secret"), []byte("should be ignored"), 0644))

	rec := s.do(t, http.MethodPost, "/folders/inspect", pathBody(t, map[string]any{"path": dir}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload models.FolderContents
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, resolved, payload.Directory)

	byName := map[string]models.DirectoryEntry{}
	for _, e := range payload.Entries {
		byName[e.Name] = e
	}
	require.Len(t, byName, 2)
	assert.False(t, byName["document.txt"].IsDirectory)
	assert.Equal(t, int64(5), byName["document.txt"].SizeBytes)
	assert.True(t, byName["nested"].IsDirectory)
	assert.NotContains(t, byName, ".secret")
}

func TestInspectFolder_MissingPathIs400(t *testing.T) {
	s := newTestServer(t, nil)
	missing := filepath.Join(t.TempDir(), "not_there")

	rec := s.do(t, http.MethodPost, "/folders/inspect", pathBody(t, map[string]any{"path": missing}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "해당 경로가 존재하지 않습니다.", decodeDetail(t, rec))
}

func TestInspectFolder_FileIs400(t *testing.T) {
	s := newTestServer(t, nil)
	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	rec := s.do(t, http.MethodPost, "/folders/inspect", pathBody(t, map[string]any{"path": file}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "디렉터리 경로를 선택해주세요.", decodeDetail(t, rec))
}

func TestMalformedBodiesAre422(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name, target, body, detail string
	}{
		{"missing path", "/folders/inspect", `{}`, "path: field required"},
		{"path wrong type", "/folders/inspect", `{"path": 5}`, ""},
		{"broken json", "/folders/snapshot", `{"path": `, ""},
		{"zero page size", "/folders/snapshot", `{"path": "/tmp", "page_size": 0}`, "page_size: must be greater than 0"},
		{"negative page size", "/folders/snapshot", `{"path": "/tmp", "page_size": -3}`, "page_size: must be greater than 0"},
		{"missing text", "/text/keywords", `{"top_n": 3}`, "text: field required"},
		{"zero top_n", "/text/keywords", `{"text": "문장", "top_n": 0}`, "top_n: must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			detail := decodeDetail(t, rec)
			assert.NotEmpty(t, detail)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, detail)
			}
		})
	}
}

func TestSnapshotFolder_CreatesSingleFile(t *testing.T) {
	s := newTestServer(t, nil)
	target := filepath.Join(t.TempDir(), "source")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "nested"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(target, ".hidden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "alpha.txt"), []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(target, "nested", "beta.txt"), []byte("beta"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(target, ".hidden", "secret.txt"), []byte("secret"), 0644))

	rec := s.do(t, http.MethodPost, "/folders/snapshot", pathBody(t, map[string]any{"path": target}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Nil(t, raw["page_size"])

	var payload SnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	resolved, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, resolved, payload.Directory)
	assert.Equal(t, 1, payload.PageCount)
	assert.Equal(t, 3, payload.TotalEntries)
	require.Len(t, payload.Pages, 1)
	assert.Equal(t, 3, payload.Pages[0].EntryCount)

	data, err := os.ReadFile(payload.Pages[0].Path)
	require.NoError(t, err)
	var doc models.SnapshotDocument
	require.NoError(t, json.Unmarshal(data, &doc))

	var paths []string
	for _, e := range doc.Entries {
		paths = append(paths, e.RelativePath)
	}
	assert.Equal(t, []string{"nested", "alpha.txt", "nested/beta.txt"}, paths)
}

func TestSnapshotFolder_HonorsPageSize(t *testing.T) {
	s := newTestServer(t, nil)
	target := filepath.Join(t.TempDir(), "source")
	require.NoError(t, os.Mkdir(target, 0755))
	for _, name := range []string{"file_0.txt", "file_1.txt", "file_2.txt", "file_3.txt", "file_4.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(target, name), []byte("data"), 0644))
	}

	rec := s.do(t, http.MethodPost, "/folders/snapshot", pathBody(t, map[string]any{"path": target, "page_size": 2}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload SnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 3, payload.PageCount)
	require.NotNil(t, payload.PageSize)
	assert.Equal(t, 2, *payload.PageSize)

	counts := make([]int, 0, len(payload.Pages))
	for _, page := range payload.Pages {
		counts = append(counts, page.EntryCount)

		data, err := os.ReadFile(page.Path)
		require.NoError(t, err)
		var doc models.SnapshotDocument
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Len(t, doc.Entries, page.EntryCount)
		assert.Equal(t, page.Page, doc.Page)
		require.NotNil(t, doc.PageSize)
		assert.Equal(t, 2, *doc.PageSize)
	}
	assert.Equal(t, []int{2, 2, 1}, counts)
}

func TestSnapshotFolder_MissingPathIs400(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/folders/snapshot", pathBody(t, map[string]any{"path": filepath.Join(t.TempDir(), "gone")}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "해당 경로가 존재하지 않습니다.", decodeDetail(t, rec))
}

func TestListSnapshots(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/folders/snapshots", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"snapshots":[]}`, rec.Body.String())

	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.txt"), []byte("a"), 0644))
	rec = s.do(t, http.MethodPost, "/folders/snapshot", pathBody(t, map[string]any{"path": target}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/folders/snapshots", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload SnapshotListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Snapshots, 1)
	assert.Equal(t, 1, payload.Snapshots[0].EntryCount)
	assert.Equal(t, s.snapshotRoot, filepath.Dir(payload.Snapshots[0].Path))
}

func TestExtractKeywords(t *testing.T) {
	s := newTestServer(t, nil)
	text := "네뷸라 프로젝트는 PDF에서 텍스트를 추출하고 정리합니다. 또한 한국어 키워드를 빠르고 정확하게 분석합니다!"

	rec := s.do(t, http.MethodPost, "/text/keywords", pathBody(t, map[string]any{"text": text, "top_n": 2}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		Keywords     [][]any `json:"keywords"`
		KeySentences [][]any `json:"key_sentences"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Keywords, 2)
	for _, pair := range payload.Keywords {
		require.Len(t, pair, 2)
		assert.IsType(t, "", pair[0])
		assert.IsType(t, float64(0), pair[1])
	}
	assert.Len(t, payload.KeySentences, 2)
}

func TestExtractKeywords_DefaultTopN(t *testing.T) {
	s := newTestServer(t, nil)
	text := "하나둘 셋넷 다섯 여섯 일곱 여덟 아홉 열하나"

	rec := s.do(t, http.MethodPost, "/text/keywords", pathBody(t, map[string]any{"text": text}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var analysis keyword.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Len(t, analysis.Keywords, keyword.DefaultTopN)
}

func TestExtractKeywords_FailuresAre500(t *testing.T) {
	s := newTestServer(t, func(context.Context) (*keyword.Extractor, error) {
		return nil, errors.New("embedding server down")
	})

	rec := s.do(t, http.MethodPost, "/text/keywords", pathBody(t, map[string]any{"text": "키워드 추출"}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := decodeDetail(t, rec)
	assert.True(t, strings.HasPrefix(detail, "키워드 추출 중 오류가 발생했습니다: "), detail)
	assert.Contains(t, detail, "embedding server down")
}

func TestExtractKeywords_EmptyTextIs500(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/text/keywords", pathBody(t, map[string]any{"text": ""}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeDetail(t, rec), "empty vocabulary")
}

func TestUnknownRouteIs404(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decodeDetail(t, rec))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodGet, "/health", "")

	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nebula_http_requests_total{method="GET",path="/health",status="200"}`)
}
