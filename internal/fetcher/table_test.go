package fetcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "feed.CSV")
	require.NoError(t, writeTestFile(csvPath, "title\nId;Name\n7;Gardens of Germantown\n"))

	tbl, err := Read(context.Background(), csvPath, Options{HeaderRow: 2, CSV: CSVOptions{Delimiter: ';'}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Name"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, 3, tbl.Rows[0].Num)

	xlsxPath := createTestXLSX(t, map[string][][]string{"Data": {{"Id"}, {"1"}}})
	tbl, err = Read(context.Background(), xlsxPath, Options{Sheet: XLSXOptions{SheetName: "Data"}})
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)

	_, err = Read(context.Background(), filepath.Join(dir, "feed.json"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.xlsx"))
	assert.True(t, Supported("A.CSV"))
	assert.False(t, Supported("a.xls"))
	assert.False(t, Supported("~lock"))
}

func TestTable_Columns(t *testing.T) {
	tbl := &Table{Header: []string{" Id ", "Latitude", "Longitude", "Latitude"}}
	cols := tbl.Columns()
	assert.Equal(t, 0, cols["Id"])
	assert.Equal(t, 1, cols["Latitude"])
	assert.Equal(t, 2, cols["Longitude"])
}
