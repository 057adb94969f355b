package feed

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/search-template/internal/fetcher"
	"github.com/sells-group/search-template/internal/model"
)

func omniSchema() Schema {
	return Schema{
		Name: "omni",
		Columns: Columns{
			ID:        "Id",
			Name:      "Name",
			Address:   "Address",
			City:      "City",
			Region:    "State",
			Zip:       "Zip",
			Latitude:  "Latitude.1",
			Longitude: "Longitude.1",
			Market:    "FacilityName",
			Priority:  []string{"ALExistingBeds", "ILExistingBeds", "MCExistingBeds"},
		},
		MarketDelimiter: ",",
		MarketToken:     1,
	}
}

const omniHeader = "FacilityName,Id,Name,Address,City,State,Zip,Latitude.1,Longitude.1,ALExistingBeds,ILExistingBeds,MCExistingBeds\n"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_CSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "comps.csv", omniHeader+
		`"Omni Major Market, Dallas, TX",11,Southern Oaks,1 Elm St,Dallas,TX,75201,32.7767,-96.7970,40,10,
"Omni Major Market, Austin, TX",12,Standifer Place,2 Oak St,Austin,TX,78701,30.2672,-97.7431,"1,200",,5
`)

	points, err := Load(context.Background(), path, omniSchema())
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, model.Point{
		ID: "11", GroupKey: "Dallas", Latitude: 32.7767, Longitude: -96.7970,
		Name: "Southern Oaks", Address: "1 Elm St", City: "Dallas", Region: "TX", Zip: "75201",
		Priority: 50,
	}, points[0])
	assert.Equal(t, "Austin", points[1].GroupKey)
	assert.Equal(t, 1205.0, points[1].Priority)
}

func TestLoad_DirectoryInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", omniHeader+`"M, Two",2,B,b,c,TN,1,35,-85,,,`+"\n")
	writeFile(t, dir, "a.csv", omniHeader+`"M, One",1,A,a,c,TN,1,35,-86,,,`+"\n")
	writeFile(t, dir, "notes.md", "ignored")
	writeFile(t, dir, "~$a.csv", "lock")

	points, err := Load(context.Background(), dir, omniSchema())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, model.IDs(points))
}

func TestLoad_ZIPArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "comps.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"2024/b.csv": omniHeader + `"M, Two",2,B,b,c,TN,1,35,-85,,,` + "\n",
		"2024/a.csv": omniHeader + `"M, One",1,A,a,c,TN,1,35,-86,,,` + "\n" + `"M, One",3,C,c,c,TN,1,95,-86,,,` + "\n",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Load(context.Background(), zipPath, omniSchema())
	var me *model.MalformedInputError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, zipPath+"/2024/a.csv", me.File)
	assert.Equal(t, 3, me.Row)
}

func TestLoad_XLSXWithTitleRow(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Property Inventory")
	require.NoError(t, err)
	rows := [][]string{
		{"Properties"},
		{"Property ID", "Property Name", "Property Address", "City", "State", "Zip Code", "Latitude", "Longitude"},
		{"P1", "Beech Tree Manor", "9 Pine", "Chattanooga", "TN", "37402", "35.0456", "-85.3097"},
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "arrow.xlsx")
	require.NoError(t, f.Save(path))

	schema := Schema{
		Name:      "arrow",
		Sheet:     "Property Inventory",
		HeaderRow: 2,
		Columns: Columns{
			ID: "Property ID", Name: "Property Name", Address: "Property Address",
			City: "City", Region: "State", Zip: "Zip Code", Latitude: "Latitude", Longitude: "Longitude",
		},
	}
	points, err := Load(context.Background(), path, schema)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "P1", points[0].ID)
	assert.Equal(t, "", points[0].GroupKey)
	assert.InDelta(t, 35.0456, points[0].Latitude, 1e-9)
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		row    int
		column string
	}{
		{"out of range latitude", omniHeader + `"M, A",1,A,a,c,TN,1,95,-85,,,` + "\n", 2, "Latitude.1/Longitude.1"},
		{"blank longitude", omniHeader + `"M, A",1,A,a,c,TN,1,35,,,,` + "\n", 2, "Longitude.1"},
		{"blank id", omniHeader + `"M, A",,A,a,c,TN,1,35,-85,,,` + "\n", 2, "Id"},
		{"market without token", omniHeader + `"M, A",1,A,a,c,TN,1,35,-85,,,` + "\n" + `Dallas,2,B,b,c,TN,1,35,-85,,,` + "\n", 3, "FacilityName"},
		{"bad priority", omniHeader + `"M, A",1,A,a,c,TN,1,35,-85,lots,,` + "\n", 2, "ALExistingBeds"},
		{"missing column", "Id,Name\n1,A\n", 0, "Address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "comps.csv", tt.body)
			_, err := Load(context.Background(), path, omniSchema())
			require.Error(t, err)
			require.True(t, model.IsMalformedInput(err), "got %v", err)

			var me *model.MalformedInputError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, path, me.File)
			assert.Equal(t, tt.row, me.Row)
			assert.Equal(t, tt.column, me.Column)
		})
	}
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/input", omniSchema())
	assert.Error(t, err)
}

func TestFiles_EmptyDirectory(t *testing.T) {
	_, err := Files(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .xlsx or .csv files")
}

func TestSchema_Validate(t *testing.T) {
	s := omniSchema()
	require.NoError(t, s.Validate())

	s.Columns.Latitude = ""
	assert.Error(t, s.Validate())

	s = omniSchema()
	s.Columns.Market = ""
	assert.Error(t, s.Validate())
}

func TestParse_ShortRow(t *testing.T) {
	tbl := &fetcher.Table{
		Source: "short.csv",
		Header: []string{"Id", "Name", "Address", "City", "State", "Latitude.1", "Longitude.1"},
		Rows:   []fetcher.Row{{Num: 2, Cells: []string{"1", "A"}}},
	}
	schema := Schema{Name: "short", Columns: Columns{
		ID: "Id", Name: "Name", Address: "Address", City: "City", Region: "State",
		Latitude: "Latitude.1", Longitude: "Longitude.1",
	}}
	_, err := Parse(tbl, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blank coordinate")
}

func TestSortByPriority_Stable(t *testing.T) {
	in := []model.Point{
		{ID: "a", Priority: 10},
		{ID: "b", Priority: 30},
		{ID: "c", Priority: 10},
		{ID: "d", Priority: 30},
	}
	out := SortByPriority(in)
	assert.Equal(t, []string{"b", "d", "a", "c"}, model.IDs(out))
	assert.Equal(t, []string{"a", "b", "c", "d"}, model.IDs(in))
}
