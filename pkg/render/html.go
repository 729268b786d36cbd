package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"discogscatalog/pkg/models"
)

//go:embed catalog.html.tmpl
var catalogTemplate string

//go:embed styles.css
var defaultStylesheet []byte

var catalog = template.Must(template.New("catalog").Parse(catalogTemplate))

// Options controls references the page makes to sibling files
type Options struct {
	Title string
	// Stylesheet is linked relative to the page
	Stylesheet string
	// ImagesDir is where thumbnails live relative to the page
	ImagesDir string
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Record catalog"
	}
	if o.Stylesheet == "" {
		o.Stylesheet = "styles.css"
	}
	if o.ImagesDir == "" {
		o.ImagesDir = "images"
	}
	return o
}

// HTML renders one table row per catalog row, in order
func HTML(w io.Writer, rows []models.ReportRow, opts Options) error {
	opts = opts.withDefaults()
	data := struct {
		Options
		Rows []models.ReportRow
	}{Options: opts, Rows: rows}

	if err := catalog.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render catalog: %w", err)
	}
	return nil
}

// WriteReport renders the catalog to path, replacing any previous file
// atomically, and drops a default stylesheet beside it when none exists.
func WriteReport(path string, rows []models.ReportRow, opts Options) error {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	if err := HTML(&buf, rows, opts); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename catalog: %w", err)
	}

	return ensureStylesheet(filepath.Join(dir, opts.Stylesheet))
}

func ensureStylesheet(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create stylesheet directory: %w", err)
	}
	if err := os.WriteFile(path, defaultStylesheet, 0644); err != nil {
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return nil
}
