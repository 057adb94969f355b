// Package export writes search templates for the market-analysis tool.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/search-template/internal/model"
)

// Header is the import contract of the analysis tool. Do not rename.
var Header = []string{
	"ID (Optional)",
	"Facility Name",
	"Street Address",
	"City",
	"State",
	"Lat (Optional)",
	"Long (Optional)",
}

const defaultSheet = "Sheet1"

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithGeoJSON also writes a GeoJSON FeatureCollection next to every template.
func WithGeoJSON() WriterOption {
	return func(w *Writer) {
		w.geoJSON = true
	}
}

// WithSheetName overrides the worksheet name.
func WithSheetName(name string) WriterOption {
	return func(w *Writer) {
		w.sheet = name
	}
}

// Writer saves point batches as XLSX search templates under a directory.
type Writer struct {
	dir     string
	sheet   string
	geoJSON bool
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{dir: dir, sheet: defaultSheet}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// PageName returns the base file name for page n of prefix. n == 0 names
// an unnumbered single template.
func PageName(prefix string, n int) string {
	if n == 0 {
		return prefix
	}
	return fmt.Sprintf("%s%d", prefix, n)
}

// Write saves points to <dir>/<name>.xlsx and returns the paths written.
func (w *Writer) Write(name string, points []model.Point) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: create dir %s", w.dir)
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(w.sheet)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}
	for _, p := range points {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Address)
		row.AddCell().SetString(p.City)
		row.AddCell().SetString(p.Region)
		row.AddCell().SetFloat(p.Latitude)
		row.AddCell().SetFloat(p.Longitude)
	}

	path := filepath.Join(w.dir, name+".xlsx")
	if err := f.Save(path); err != nil {
		return nil, eris.Wrapf(err, "export: save %s", path)
	}
	paths := []string{path}

	if w.geoJSON {
		gjPath := filepath.Join(w.dir, name+".geojson")
		if err := WriteGeoJSON(gjPath, points); err != nil {
			return paths, err
		}
		paths = append(paths, gjPath)
	}
	return paths, nil
}

// WritePages writes each page to a numbered template (prefix1, prefix2, ...).
// When numbered is false and there is exactly one page it is written to
// prefix alone.
func (w *Writer) WritePages(prefix string, pages [][]model.Point, numbered bool) ([]string, error) {
	var paths []string
	for i, page := range pages {
		n := i + 1
		if !numbered && len(pages) == 1 {
			n = 0
		}
		written, err := w.Write(PageName(prefix, n), page)
		paths = append(paths, written...)
		if err != nil {
			return paths, err
		}
	}
	return paths, nil
}
