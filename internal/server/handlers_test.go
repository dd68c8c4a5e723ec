package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type upload struct {
	name    string
	content string
}

func multipartBody(t *testing.T, field string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newUploadContext(t *testing.T, body *bytes.Buffer, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeResults(t *testing.T, rec *httptest.ResponseRecorder) []Result {
	t.Helper()
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Results
}

func TestHandleUploadText(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir, 2, zap.NewNop())

	body, ct := multipartBody(t, "files",
		upload{"first.txt", "alpha"},
		upload{"Second.TXT", "beta"},
	)
	c, rec := newUploadContext(t, body, ct)

	require.NoError(t, h.HandleUpload(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	results := decodeResults(t, rec)
	require.Len(t, results, 2)
	assert.Equal(t, Result{FileName: "first.txt", Text: "alpha", Success: true}, results[0])
	assert.Equal(t, Result{FileName: "Second.TXT", Text: "beta", Success: true}, results[1])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "uploads should be removed after extraction")
}

func TestHandleUploadKeepsOrder(t *testing.T) {
	h := NewHandler(t.TempDir(), 4, nil)
	var calls atomic.Int32
	h.extract = func(ctx context.Context, path string) (string, error) {
		// Earlier files finish last.
		n := calls.Add(1)
		time.Sleep(time.Duration(10-n) * 5 * time.Millisecond)
		data, err := os.ReadFile(path)
		return string(data), err
	}

	var files []upload
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		files = append(files, upload{s + ".txt", s})
	}
	body, ct := multipartBody(t, "files", files...)
	c, rec := newUploadContext(t, body, ct)

	require.NoError(t, h.HandleUpload(c))
	results := decodeResults(t, rec)
	require.Len(t, results, 5)
	for i, f := range files {
		assert.Equal(t, f.name, results[i].FileName)
		assert.Equal(t, f.content, results[i].Text)
	}
}

func TestHandleUploadExtractionFailure(t *testing.T) {
	h := NewHandler(t.TempDir(), 1, nil)
	h.extract = func(ctx context.Context, path string) (string, error) {
		if strings.HasSuffix(path, ".pdf") {
			return "", errors.New("corrupt pdf")
		}
		return "ok", nil
	}

	body, ct := multipartBody(t, "files",
		upload{"broken.pdf", "not a pdf"},
		upload{"fine.txt", "fine"},
	)
	c, rec := newUploadContext(t, body, ct)

	require.NoError(t, h.HandleUpload(c))
	results := decodeResults(t, rec)
	require.Len(t, results, 2)
	assert.Equal(t, Result{FileName: "broken.pdf", Text: "", Success: false}, results[0])
	assert.True(t, results[1].Success)
}

func TestHandleUploadStoredName(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir, 1, nil)
	var seen string
	h.extract = func(ctx context.Context, path string) (string, error) {
		seen = path
		return "", nil
	}

	body, ct := multipartBody(t, "files", upload{"Scan.PNG", "x"})
	c, _ := newUploadContext(t, body, ct)
	require.NoError(t, h.HandleUpload(c))

	assert.True(t, strings.HasPrefix(seen, dir), "stored under upload dir: %s", seen)
	assert.Regexp(t, `files-[0-9a-f-]{36}\.png$`, seen)
}

func TestHandleUploadRejects(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		files    []upload
		wantCode string
	}{
		{
			name:     "no files",
			field:    "files",
			wantCode: "BAD_REQUEST",
		},
		{
			name:     "wrong field",
			field:    "document",
			files:    []upload{{"a.txt", "a"}},
			wantCode: "BAD_REQUEST",
		},
		{
			name:     "invalid type",
			field:    "files",
			files:    []upload{{"a.txt", "a"}, {"evil.exe", "MZ"}},
			wantCode: "INVALID_FILE_TYPE",
		},
		{
			name:     "epub not accepted over http",
			field:    "files",
			files:    []upload{{"book.epub", "PK"}},
			wantCode: "INVALID_FILE_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(t.TempDir(), 1, nil)
			body, ct := multipartBody(t, tt.field, tt.files...)
			c, _ := newUploadContext(t, body, ct)

			err := h.HandleUpload(c)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestHandleUploadNotMultipart(t *testing.T) {
	h := NewHandler(t.TempDir(), 1, nil)
	c, _ := newUploadContext(t, bytes.NewBufferString(`{"files":[]}`), echo.MIMEApplicationJSON)

	err := h.HandleUpload(c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, noFilesMessage, apiErr.Message)
}
