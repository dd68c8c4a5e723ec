package extract

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxFormat implements Format for Word documents.
type DocxFormat struct{}

func init() {
	Register(&DocxFormat{})
}

func (f *DocxFormat) Name() string         { return "Word" }
func (f *DocxFormat) Extensions() []string { return []string{".doc", ".docx"} }

// Extract returns the body paragraphs of the document joined by newlines.
// Legacy binary .doc files are not OOXML packages and fail to open.
func (f *DocxFormat) Extract(_ context.Context, filename string) (string, error) {
	return ExtractTextFromDocx(filename)
}

// ExtractTextFromDocx extracts paragraph text from the main document part of a .docx file.
func ExtractTextFromDocx(filename string) (string, error) {
	r, err := docx.ReadDocxFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer r.Close()

	paragraphs, err := parseParagraphs(r.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// parseParagraphs returns the text of each w:p that is a direct child of w:body.
// Paragraphs inside tables, headers and text boxes are skipped, and only runs
// belonging to the paragraph itself contribute text.
func parseParagraphs(content string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		stack      []string
		cur        strings.Builder
		inPara     bool
		paraDepth  int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == wordNS {
				switch t.Name.Local {
				case "p":
					if !inPara && len(stack) > 0 && stack[len(stack)-1] == "body" {
						inPara = true
						paraDepth = len(stack)
						cur.Reset()
					}
				case "t":
					inText = inPara && ownRun(stack[paraDepth:])
				case "tab":
					if inPara && ownRun(stack[paraDepth:]) {
						cur.WriteByte('\t')
					}
				case "br", "cr":
					if inPara && ownRun(stack[paraDepth:]) && lineBreak(t) {
						cur.WriteByte('\n')
					}
				}
			}
			stack = append(stack, t.Name.Local)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inPara && len(stack) == paraDepth {
					paragraphs = append(paragraphs, cur.String())
					inPara = false
				}
			}

		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// ownRun reports whether path, the element names from a body paragraph down to the
// current element, ends in a run of that paragraph: p/r or p/hyperlink/r.
// Text boxes nest whole paragraphs under a run and are excluded.
func ownRun(path []string) bool {
	switch len(path) {
	case 2:
		return path[0] == "p" && path[1] == "r"
	case 3:
		return path[0] == "p" && path[1] == "hyperlink" && path[2] == "r"
	}
	return false
}

// lineBreak reports whether a w:br/w:cr is a text-wrapping break.
// Page and column breaks produce no text.
func lineBreak(el xml.StartElement) bool {
	if el.Name.Local == "cr" {
		return true
	}
	for _, a := range el.Attr {
		if a.Name.Local == "type" {
			return a.Value == "" || a.Value == "textWrapping"
		}
	}
	return true
}
