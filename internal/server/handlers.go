package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/metcalfc/filetext/internal/extract"
)

const noFilesMessage = "No files uploaded or invalid file type"

// AllowedExtensions lists the upload types the API accepts.
var AllowedExtensions = []string{".pdf", ".txt", ".doc", ".docx", ".jpg", ".jpeg", ".png"}

// Result is the outcome of extracting a single uploaded file.
type Result struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
	Success  bool   `json:"success"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Results []Result `json:"results"`
}

// ExtractFunc turns a stored upload into text.
type ExtractFunc func(ctx context.Context, path string) (string, error)

// Handler serves the extraction API.
type Handler struct {
	uploadDir string
	workers   int
	log       *zap.Logger
	extract   ExtractFunc
}

// NewHandler creates a Handler storing uploads in uploadDir.
func NewHandler(uploadDir string, workers int, log *zap.Logger) *Handler {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		uploadDir: uploadDir,
		workers:   workers,
		log:       log,
		extract: func(ctx context.Context, path string) (string, error) {
			return extract.Process(ctx, io.Discard, path)
		},
	}
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleUpload extracts text from every file in the "files" form field.
// Results keep upload order. Stored copies are removed once extracted.
func (h *Handler) HandleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError(noFilesMessage, err)
	}
	files := form.File["files"]
	if len(files) == 0 {
		return NewBadRequestError(noFilesMessage, nil)
	}
	for _, fh := range files {
		if !allowed(fh.Filename) {
			return NewInvalidFileTypeError(fh.Filename)
		}
	}

	ctx := c.Request().Context()
	results := make([]Result, len(files))

	var g errgroup.Group
	g.SetLimit(h.workers)
	for i, fh := range files {
		g.Go(func() error {
			results[i] = h.process(ctx, fh)
			return nil
		})
	}
	g.Wait()

	return c.JSON(http.StatusOK, UploadResponse{Results: results})
}

func (h *Handler) process(ctx context.Context, fh *multipart.FileHeader) Result {
	res := Result{FileName: fh.Filename}
	log := h.log.With(zap.String("file", fh.Filename))

	path, err := h.store(fh)
	if err != nil {
		log.Error("failed to store upload", zap.Error(err))
		return res
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove upload", zap.String("path", path), zap.Error(err))
		}
	}()

	text, err := h.extract(ctx, path)
	if err != nil {
		log.Error("extraction failed", zap.Error(err))
		return res
	}
	log.Info("extracted", zap.Int("chars", len(text)))
	res.Text = text
	res.Success = true
	return res
}

// store copies the upload to files-<uuid><ext> in the upload directory.
func (h *Handler) store(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("files-%s%s", uuid.NewString(), extract.Ext(fh.Filename))
	path := filepath.Join(h.uploadDir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", err
	}
	return path, dst.Close()
}

func allowed(filename string) bool {
	return slices.Contains(AllowedExtensions, extract.Ext(filename))
}
