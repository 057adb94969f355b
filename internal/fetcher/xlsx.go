package fetcher

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	HeaderRow  int    // 1-based; rows above it are skipped
}

// ReadXLSX reads one sheet of an XLSX file into a Table.
func ReadXLSX(path string, opts XLSXOptions) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open file %s", path)
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: %s", path)
	}

	raw := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		raw = append(raw, rowToStrings(row))
	}

	return newTable(path, raw, opts.HeaderRow)
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

// rowToStrings returns display strings for text cells and the raw stored
// value for numeric cells, so coordinates keep full precision regardless
// of the cell's number format.
func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		if cell.Type() == xlsx.CellTypeNumeric {
			cells[j] = cell.Value
			continue
		}
		cells[j] = cell.String()
	}
	return cells
}
