package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// PDFFormat implements Format for PDF files.
type PDFFormat struct{}

func init() {
	// pdfcpu otherwise installs a config directory under the user's home.
	api.DisableConfigDir()
	Register(&PDFFormat{})
}

func (f *PDFFormat) Name() string         { return "PDF" }
func (f *PDFFormat) Extensions() []string { return []string{".pdf"} }

// Extract concatenates the text of every page in page order. Files the text reader
// cannot parse are rewritten once by pdfcpu and read again.
func (f *PDFFormat) Extract(ctx context.Context, filename string) (string, error) {
	text, err := ExtractTextFromPDF(ctx, filename)
	if err == nil || ctx.Err() != nil {
		return text, err
	}

	logger.Info("pdf unreadable, rewriting with pdfcpu", zap.String("file", filename), zap.Error(err))
	dir, derr := os.MkdirTemp("", "filetext-pdf")
	if derr != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	repaired := filepath.Join(dir, "repaired.pdf")
	if rerr := optimizePDF(filename, repaired); rerr != nil {
		return "", fmt.Errorf("failed to read pdf: %w (repair: %v)", err, rerr)
	}
	return ExtractTextFromPDF(ctx, repaired)
}

// ExtractTextFromPDF extracts the plain text of each page of a PDF file.
func ExtractTextFromPDF(ctx context.Context, filename string) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	fh, r, err := pdf.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer fh.Close()

	var out strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		s, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		out.WriteString(s)
	}
	return out.String(), nil
}

// PageCount returns the number of pages in a PDF file.
func PageCount(filename string) (int, error) {
	return api.PageCountFile(filename)
}

func optimizePDF(inPath, outPath string) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.OptimizeFile(inPath, outPath, cfg)
}
