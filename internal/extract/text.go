package extract

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"
)

// TextFormat implements Format for plain UTF-8 text files.
type TextFormat struct{}

func init() {
	Register(&TextFormat{})
}

func (f *TextFormat) Name() string         { return "Text" }
func (f *TextFormat) Extensions() []string { return []string{".txt"} }

// Extract returns the file contents verbatim. Content that is not valid UTF-8 is an error.
func (f *TextFormat) Extract(_ context.Context, filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8", filename)
	}
	return string(data), nil
}
