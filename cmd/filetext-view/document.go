package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metcalfc/filetext/internal/extract"
	"github.com/metcalfc/filetext/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// document is an extracted file plus its remembered view position.
type document struct {
	path   string
	name   string
	format string
	text   string
	pages  int
	hash   string
	store  *state.Store
	viewed time.Time
}

func loadDocument(ctx context.Context, path string) (*document, error) {
	text, err := extract.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}

	doc := &document{
		path: path,
		name: filepath.Base(path),
		text: text,
	}
	if f, ok := extract.Lookup(path); ok {
		doc.format = f.Name()
	}
	if extract.Ext(path) == ".pdf" {
		if n, err := extract.PageCount(path); err == nil {
			doc.pages = n
		}
	}

	// Position memory is best effort.
	if store, err := state.NewStore(); err == nil {
		if hash, err := state.ComputeHash(path); err == nil {
			doc.store = store
			doc.hash = hash
			if v, ok := store.Get(hash); ok {
				doc.viewed = v.ViewedAt
			}
		}
	}
	return doc, nil
}

// savedLine returns the remembered top line scaled to a rendering of total lines.
func (d *document) savedLine(total int) int {
	if d.store == nil {
		return 0
	}
	v, ok := d.store.Get(d.hash)
	if !ok {
		return 0
	}
	return v.Offset(total)
}

func (d *document) saveLine(line, total int) {
	if d.store == nil {
		return
	}
	d.store.Save(d.hash, state.ViewState{Line: line, Lines: total, Name: d.name})
}

func (d *document) clearLine() {
	if d.store == nil {
		return
	}
	d.store.Clear(d.hash)
}

// summary describes the document for status lines.
func (d *document) summary() string {
	parts := []string{d.name}
	if d.format != "" {
		parts = append(parts, d.format)
	}
	if d.pages > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", d.pages))
	}
	parts = append(parts, fmt.Sprintf("%d words", len(strings.Fields(d.text))))
	if !d.viewed.IsZero() {
		parts = append(parts, "last viewed "+d.viewed.Local().Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, " | ")
}

func parseArgs() string {
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "filetext-view - read the text extracted from a document\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  filetext-view [options] <file>\n")
		fmt.Fprintf(os.Stderr, "  filetext-view [options] -- <file>   (for paths beginning with '-')\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSupported formats:\n")
		for _, f := range extract.SupportedFormats() {
			fmt.Fprintf(os.Stderr, "  %s\n", f)
		}
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("filetext-view %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	return flag.Arg(0)
}

func mustLoad(path string) *document {
	if !extract.IsSupported(path) {
		fmt.Fprintf(os.Stderr, "Error: '%s' is not a supported format. Try: filetext-view -h\n", path)
		os.Exit(1)
	}
	doc, err := loadDocument(context.Background(), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to extract '%s': %v\n", path, err)
		os.Exit(1)
	}
	if strings.TrimSpace(doc.text) == "" {
		fmt.Fprintln(os.Stderr, "Error: No text extracted.")
		os.Exit(1)
	}
	return doc
}
