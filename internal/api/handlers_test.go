package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filevault/filevault/internal/config"
	"github.com/filevault/filevault/internal/models"
	"github.com/filevault/filevault/internal/storage"
	"github.com/filevault/filevault/internal/testutil"
)

func newTestServer(t *testing.T) (*echo.Echo, *storage.VaultStore, *testutil.MemoryBackend) {
	t.Helper()
	backend := testutil.NewMemoryBackend()
	store, err := storage.NewVaultStore(backend)
	require.NoError(t, err)

	e := echo.New()
	SetupMiddleware(e, config.ServerConfig{EnableMetrics: true})
	RegisterRoutes(e, NewHandlers(&Dependencies{Store: store, Version: "test"}))
	RegisterMetricsRoute(e)
	return e, store, backend
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, e *echo.Echo, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "file", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	return serve(e, req)
}

func listFiles(t *testing.T, e *echo.Echo) []string {
	t.Helper()
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.FileListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Files
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) models.OperationResponse {
	t.Helper()
	var resp models.OperationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestFiles_EmptyListIsArray(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"files":[]}`, rec.Body.String())
}

func TestFiles_UploadListDownloadRoundTrip(t *testing.T) {
	e, _, backend := newTestServer(t)

	rec := upload(t, e, "Report.pdf", "quarterly numbers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Report.pdf", decodeResult(t, rec).Filename)

	require.Equal(t, http.StatusOK, upload(t, e, "notes.txt", "remember").Code)
	assert.Equal(t, []string{"Report.pdf", "notes.txt"}, listFiles(t, e))

	// Only ciphertext reaches the backend, under uuid-prefixed keys.
	for _, key := range backend.Keys() {
		assert.Regexp(t, `^[0-9a-f]{32}_`, key)
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/download/Report.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quarterly numbers", rec.Body.String())
	assert.Equal(t, `attachment; filename=Report.pdf`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
}

func TestFiles_EscapedNamesOnEveryRoute(t *testing.T) {
	e, _, _ := newTestServer(t)
	const name = "a b&c.txt"
	const escaped = "a%20b%26c.txt"

	require.Equal(t, http.StatusOK, upload(t, e, name, "original").Code)
	assert.Equal(t, []string{name}, listFiles(t, e))

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/download/"+escaped, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "original", rec.Body.String())

	body, contentType := multipartBody(t, "file", "whatever.bin", "changed")
	req := httptest.NewRequest(http.MethodPut, "/modify/"+escaped, body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec = serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "File modified and re-encrypted", decodeResult(t, rec).Message)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/download/"+escaped, nil))
	assert.Equal(t, "changed", rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/delete/"+escaped, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "File deleted", decodeResult(t, rec).Message)
	assert.Empty(t, listFiles(t, e))
}

func TestFiles_PercentInNameIsNotDecodedTwice(t *testing.T) {
	e, _, _ := newTestServer(t)
	const name = "100%25.txt"

	require.Equal(t, http.StatusOK, upload(t, e, name, "literal").Code)

	// The client escapes "%" once, giving %2525; one decode restores the name.
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/download/100%2525.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "literal", rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/download/100%25.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFiles_DeleteTwice(t *testing.T) {
	e, _, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, upload(t, e, "a.txt", "a").Code)
	require.Equal(t, http.StatusOK, upload(t, e, "b.txt", "b").Code)

	rec := serve(e, httptest.NewRequest(http.MethodDelete, "/delete/a.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"b.txt"}, listFiles(t, e))

	rec = serve(e, httptest.NewRequest(http.MethodDelete, "/delete/a.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"File not found"}`, rec.Body.String())
}

func TestFiles_DownloadErrors(t *testing.T) {
	t.Run("unknown name", func(t *testing.T) {
		e, _, _ := newTestServer(t)
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/download/missing.txt", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"File not found"}`, rec.Body.String())
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		e, _, backend := newTestServer(t)
		require.Equal(t, http.StatusOK, upload(t, e, "secret.txt", "top secret contents").Code)

		keys := backend.Keys()
		require.Len(t, keys, 1)
		require.True(t, backend.Corrupt(keys[0]))

		rec := serve(e, httptest.NewRequest(http.MethodGet, "/download/secret.txt", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"File integrity compromised"}`, rec.Body.String())
	})

	t.Run("key missing", func(t *testing.T) {
		store := testutil.NewMockStore()
		store.OpenErr = storage.ErrKeyMissing
		_, err := store.Save(t.Context(), "k.txt", http.NoBody)
		require.NoError(t, err)

		e := echo.New()
		e.HTTPErrorHandler = ErrorHandler
		RegisterRoutes(e, NewHandlers(&Dependencies{Store: store}))

		rec := serve(e, httptest.NewRequest(http.MethodGet, "/download/k.txt", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":"Encryption key missing"}`, rec.Body.String())
	})

	t.Run("backend failure", func(t *testing.T) {
		store := testutil.NewMockStore()
		store.OpenErr = io.ErrUnexpectedEOF
		_, err := store.Save(t.Context(), "k.txt", http.NoBody)
		require.NoError(t, err)

		e := echo.New()
		e.HTTPErrorHandler = ErrorHandler
		RegisterRoutes(e, NewHandlers(&Dependencies{Store: store}))

		rec := serve(e, httptest.NewRequest(http.MethodGet, "/download/k.txt", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"unexpected EOF"}`, rec.Body.String())
	})
}

func TestFiles_ModifyKeepsPosition(t *testing.T) {
	e, _, _ := newTestServer(t)
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.Equal(t, http.StatusOK, upload(t, e, name, name).Code)
	}

	body, contentType := multipartBody(t, "file", "new.txt", "B2")
	req := httptest.NewRequest(http.MethodPut, "/modify/b.txt", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	require.Equal(t, http.StatusOK, serve(e, req).Code)

	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, listFiles(t, e))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/download/b.txt", nil))
	assert.Equal(t, "B2", rec.Body.String())
}

func TestErrorHandler_ContractShape(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodPost, "/files", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method Not Allowed"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	e, _, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, upload(t, e, "a.txt", "a").Code)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"test","files":1}`, rec.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	e, _, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, upload(t, e, "a.txt", "a").Code)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "filevault_file_operations_total")
	assert.Contains(t, rec.Body.String(), `route="/upload"`)
}
