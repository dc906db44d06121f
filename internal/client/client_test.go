package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filevault/filevault/internal/api"
	"github.com/filevault/filevault/internal/config"
	"github.com/filevault/filevault/internal/storage"
	"github.com/filevault/filevault/internal/testutil"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	return New(Config{BaseURL: ts.URL}), ts
}

// vaultServer runs the real API over an in-memory backend.
func vaultServer(t *testing.T) (*Client, *storage.VaultStore) {
	t.Helper()
	store, err := storage.NewVaultStore(testutil.NewMemoryBackend())
	require.NoError(t, err)

	e := echo.New()
	api.SetupMiddleware(e, config.ServerConfig{})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{Store: store, Version: "test"}))

	c, ts := testClient(e)
	t.Cleanup(ts.Close)
	return c, store
}

func TestEscapeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"plain.txt", "plain.txt"},
		{"a b&c.txt", "a%20b%26c.txt"},
		{"x+y.txt", "x%2By.txt"},
		{"dir/file", "dir%2Ffile"},
		{"100%.txt", "100%25.txt"},
		{"what?#.txt", "what%3F%23.txt"},
		{"日本.txt", "%E6%97%A5%E6%9C%AC.txt"},
		{"it's (1)!*.txt", "it's%20(1)!*.txt"},
		{"a~b_c-d.txt", "a~b_c-d.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeName(tt.name))
		})
	}
}

func TestClient_SameEncodingOnEveryRoute(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.EscapedPath())
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"message":"ok"}`)
	}))
	defer ts.Close()

	ctx := context.Background()
	const name = "a b&c.txt"

	_, err := c.DownloadFile(ctx, name, io.Discard)
	require.NoError(t, err)
	_, err = c.DeleteFile(ctx, name)
	require.NoError(t, err)
	_, err = c.ModifyFile(ctx, name, strings.NewReader("new"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/download/a%20b%26c.txt",
		"/delete/a%20b%26c.txt",
		"/modify/a%20b%26c.txt",
	}, paths)
	assert.Equal(t, ts.URL+"/download/a%20b%26c.txt", c.DownloadURL(name))
}

func TestClient_UploadSendsSingleFilePart(t *testing.T) {
	var gotName, gotContent string
	var gotParts int
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotParts = len(r.MultipartForm.File) + len(r.MultipartForm.Value)
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotName, gotContent = fh.Filename, string(data)

		json.NewEncoder(w).Encode(map[string]string{"message": "File uploaded successfully.", "filename": fh.Filename})
	}))
	defer ts.Close()

	res, err := c.UploadFile(context.Background(), `say "hi".txt`, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, 1, gotParts)
	assert.Equal(t, `say "hi".txt`, gotName)
	assert.Equal(t, "hello", gotContent)
	assert.False(t, res.Failed())
	assert.Equal(t, "File uploaded successfully.", res.Text())
}

func TestClient_ErrorBodyIsAResult(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"File not found"}`)
	}))
	defer ts.Close()

	res, err := c.DeleteFile(context.Background(), "gone.txt")
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, "File not found", res.Text())
}

func TestClient_EmptyErrorBodyUsesStatusText(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{}`)
	}))
	defer ts.Close()

	res, err := c.DeleteFile(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Bad Gateway", res.Error)
}

func TestClient_UndecodableBodyIsAnError(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `<html>bad gateway</html>`)
	}))
	defer ts.Close()

	_, err := c.DeleteFile(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_ListFailures(t *testing.T) {
	t.Run("bad json", func(t *testing.T) {
		c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `not json`)
		}))
		defer ts.Close()

		_, err := c.ListFiles(context.Background())
		assert.ErrorContains(t, err, "decode file list")
	})

	t.Run("server error", func(t *testing.T) {
		c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":"boom"}`)
		}))
		defer ts.Close()

		_, err := c.ListFiles(context.Background())
		require.Error(t, err)
		var rerr *ResponseError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, http.StatusInternalServerError, rerr.Status)
		assert.Equal(t, "boom", rerr.Message)
	})

	t.Run("unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		_, err := New(Config{BaseURL: ts.URL}).ListFiles(context.Background())
		assert.ErrorContains(t, err, "list files")
	})

	t.Run("null files", func(t *testing.T) {
		c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"files":null}`)
		}))
		defer ts.Close()

		names, err := c.ListFiles(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, names)
		assert.Empty(t, names)
	})
}

func TestClient_AgainstServer(t *testing.T) {
	c, _ := vaultServer(t)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt", "a b&c.txt", "it's (1).txt"} {
		res, err := c.UploadFile(ctx, name, strings.NewReader("content of "+name))
		require.NoError(t, err)
		require.False(t, res.Failed(), res.Error)
	}

	names, err := c.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "a b&c.txt", "it's (1).txt"}, names)

	buf0 := new(bytes.Buffer)
	_, err = c.DownloadFile(ctx, "it's (1).txt", buf0)
	require.NoError(t, err)
	assert.Equal(t, "content of it's (1).txt", buf0.String())

	var buf bytes.Buffer
	n, err := c.DownloadFile(ctx, "a b&c.txt", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "content of a b&c.txt", buf.String())

	res, err := c.ModifyFile(ctx, "a b&c.txt", strings.NewReader("v2"))
	require.NoError(t, err)
	assert.Equal(t, "File modified and re-encrypted", res.Message)

	res, err = c.DeleteFile(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "File deleted", res.Message)

	res, err = c.DeleteFile(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "File not found", res.Error)

	_, err = c.DownloadFile(ctx, "a.txt", io.Discard)
	assert.True(t, IsNotFound(err))
	assert.ErrorContains(t, err, "File not found")

	names, err = c.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "a b&c.txt", "it's (1).txt"}, names)
}
