// Package fetcher reads tabular feed exports (XLSX and CSV) into header-indexed tables.
package fetcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Row is one data row with its 1-based row number in the source file.
type Row struct {
	Num   int
	Cells []string
}

// Table is a parsed tabular file: a header row and the non-blank rows below it.
type Table struct {
	Source string
	Header []string
	Rows   []Row
}

// Columns maps each trimmed header name to its index. When a name repeats,
// the first occurrence wins.
func (t *Table) Columns() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, col := range t.Header {
		col = strings.TrimSpace(col)
		if _, ok := idx[col]; !ok {
			idx[col] = i
		}
	}
	return idx
}

// Options configures Read. Sheet options apply to XLSX only and CSV
// options to CSV only.
type Options struct {
	// HeaderRow is the 1-based row holding column names. Rows above it are
	// ignored. 0 means 1.
	HeaderRow int
	Sheet     XLSXOptions
	CSV       CSVOptions
}

// Read loads path as XLSX or CSV based on its extension.
func Read(ctx context.Context, path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		xo := opts.Sheet
		xo.HeaderRow = opts.HeaderRow
		return ReadXLSX(path, xo)
	case ".csv", ".txt":
		co := opts.CSV
		co.HeaderRow = opts.HeaderRow
		return ReadCSV(ctx, path, co)
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", path)
	}
}

// Supported reports whether Read can load path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv", ".txt":
		return true
	}
	return false
}

// newTable splits raw rows at the header row and drops blank data rows.
// raw[i] is source row i+1.
func newTable(source string, raw [][]string, headerRow int) (*Table, error) {
	if headerRow <= 0 {
		headerRow = 1
	}
	if len(raw) < headerRow {
		return nil, eris.Errorf("fetcher: %s has %d row(s), header expected on row %d", source, len(raw), headerRow)
	}

	header := raw[headerRow-1]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Source: source, Header: header}
	for i := headerRow; i < len(raw); i++ {
		if blank(raw[i]) {
			continue
		}
		t.Rows = append(t.Rows, Row{Num: i + 1, Cells: raw[i]})
	}
	return t, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
