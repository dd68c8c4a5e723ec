package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"strings"
)

// OCREngine recognises text in an image file.
type OCREngine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Tesseract runs the tesseract command line tool.
type Tesseract struct {
	Path     string // binary, defaults to "tesseract"
	Language string // -l argument, omitted when empty
}

// NewTesseract configures a Tesseract engine from TESSERACT_PATH and TESSERACT_LANG.
func NewTesseract() *Tesseract {
	return &Tesseract{
		Path:     os.Getenv("TESSERACT_PATH"),
		Language: os.Getenv("TESSERACT_LANG"),
	}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) binary() string {
	if t.Path != "" {
		return t.Path
	}
	return "tesseract"
}

// Recognize writes recognised text to stdout and returns it.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary(), args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", t.binary(), err, msg)
		}
		return "", fmt.Errorf("%s: %w", t.binary(), err)
	}
	return string(out), nil
}

// ImageFormat implements Format for raster images through OCR.
type ImageFormat struct {
	Engine OCREngine
}

func init() {
	Register(&ImageFormat{Engine: NewTesseract()})
}

func (f *ImageFormat) Name() string         { return "Image" }
func (f *ImageFormat) Extensions() []string { return []string{".jpg", ".jpeg", ".png"} }

// Extract checks that the file decodes as an image before handing it to the OCR engine.
func (f *ImageFormat) Extract(ctx context.Context, filename string) (string, error) {
	if err := checkImage(filename); err != nil {
		return "", err
	}
	return f.Engine.Recognize(ctx, filename)
}

// SetOCREngine swaps the engine used by the registered image format and returns the previous one.
func SetOCREngine(e OCREngine) OCREngine {
	var prev OCREngine
	for _, f := range registry {
		if img, ok := f.(*ImageFormat); ok {
			prev = img.Engine
			img.Engine = e
		}
	}
	return prev
}

func checkImage(filename string) error {
	fh, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fh.Close()

	if _, _, err := image.DecodeConfig(fh); err != nil {
		return fmt.Errorf("cannot identify image file %s: %w", filename, err)
	}
	return nil
}
