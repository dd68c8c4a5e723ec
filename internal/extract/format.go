// Package extract pulls plain text out of documents, choosing an extractor by file extension.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Messages returned in place of extracted text.
const (
	FileDoesNotExist    = "File does not exist"
	UnsupportedFileType = "Unsupported file type"
)

var (
	ErrNotExist    = errors.New("file does not exist")
	ErrUnsupported = errors.New("unsupported file type")
)

// Format defines a file format reader for extracting text.
type Format interface {
	Name() string
	Extensions() []string
	Extract(ctx context.Context, filename string) (string, error)
}

var (
	registry []Format
	logger   = zap.NewNop()
)

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// SetLogger replaces the package logger. A nil logger disables logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Ext returns the lowercased extension of filename, including the dot.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Lookup returns the registered format handling the extension of filename.
func Lookup(filename string) (Format, bool) {
	ext := Ext(filename)
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f, true
			}
		}
	}
	return nil, false
}

// IsSupported reports whether a registered format handles filename.
func IsSupported(filename string) bool {
	_, ok := Lookup(filename)
	return ok
}

// ExtractText extracts text from a file using the format registered for its extension.
// It fails with ErrNotExist or ErrUnsupported before any format is consulted.
func ExtractText(ctx context.Context, filename string) (string, error) {
	if !exists(filename) {
		return "", fmt.Errorf("%s: %w", filename, ErrNotExist)
	}
	f, ok := Lookup(filename)
	if !ok {
		return "", fmt.Errorf("%s: %w", Ext(filename), ErrUnsupported)
	}
	return extractWith(ctx, f, filename)
}

// Process extracts text from filename, writing progress lines to w.
// A missing file or an unsupported extension is reported through the returned text
// (FileDoesNotExist, UnsupportedFileType) rather than an error; only failures inside
// an extractor are returned as errors.
func Process(ctx context.Context, w io.Writer, filename string) (string, error) {
	if !exists(filename) {
		fmt.Fprintf(w, "File does not exist: %s\n", filename)
		return FileDoesNotExist, nil
	}

	ext := Ext(filename)
	fmt.Fprintf(w, "Processing file: %s\n", filename)
	fmt.Fprintf(w, "File extension: %s\n", ext)

	f, ok := Lookup(filename)
	if !ok {
		logger.Debug("no extractor registered", zap.String("ext", ext))
		return UnsupportedFileType, nil
	}
	return extractWith(ctx, f, filename)
}

func extractWith(ctx context.Context, f Format, filename string) (string, error) {
	logger.Debug("extracting", zap.String("file", filename), zap.String("format", f.Name()))
	text, err := f.Extract(ctx, filename)
	if err != nil {
		logger.Warn("extraction failed",
			zap.String("file", filename),
			zap.String("format", f.Name()),
			zap.Error(err))
		return "", fmt.Errorf("%s: %w", strings.ToLower(f.Name()), err)
	}
	logger.Debug("extracted", zap.String("file", filename), zap.Int("chars", len(text)))
	return text, nil
}

func exists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

// SupportedExtensions returns every registered extension, sorted.
func SupportedExtensions() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Extensions()...)
	}
	sort.Strings(out)
	return out
}
