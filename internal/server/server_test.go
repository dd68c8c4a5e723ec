package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.UploadDir = filepath.Join(t.TempDir(), "uploads")
	e, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestUploadEndToEnd(t *testing.T) {
	srv := testServer(t)

	body, ct := multipartBody(t, "files",
		upload{"notes.txt", "hello from a text file"},
		upload{"broken.docx", "not a zip"},
	)
	resp, err := http.Post(srv.URL+"/upload", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 2)
	assert.Equal(t, "hello from a text file", out.Results[0].Text)
	assert.True(t, out.Results[0].Success)
	assert.False(t, out.Results[1].Success)
}

func TestUploadErrorBody(t *testing.T) {
	srv := testServer(t)

	body, ct := multipartBody(t, "files", upload{"virus.exe", "MZ"})
	resp, err := http.Post(srv.URL+"/upload", ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var apiErr map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.Equal(t, "Invalid file type", apiErr["error"])
	assert.Equal(t, "INVALID_FILE_TYPE", apiErr["code"])
}

func TestUnknownRoute(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var apiErr map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.Equal(t, "HTTP_ERROR", apiErr["code"])
}

func TestDefaultConfigEnv(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("FILETEXT_UPLOAD_DIR", "/tmp/ft")

	cfg := DefaultConfig()
	assert.Equal(t, ":8088", cfg.Addr)
	assert.Equal(t, "/tmp/ft", cfg.UploadDir)

	t.Setenv("PORT", "")
	assert.Equal(t, ":5001", DefaultConfig().Addr)
}
