package feed

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/search-template/internal/dedupe"
	"github.com/sells-group/search-template/internal/fetcher"
	"github.com/sells-group/search-template/internal/model"
)

const defaultWorkers = 4

// Files resolves an input path. A directory yields every supported file
// directly inside it, sorted by name; spreadsheet lock files and hidden
// files are skipped. A regular file is returned as is.
func Files(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: stat %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: read dir %s", path)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if fetcher.Supported(name) {
			files = append(files, filepath.Join(path, name))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, eris.Errorf("feed: no .xlsx or .csv files in %s", path)
	}
	return files, nil
}

// resolve expands path into the files to read and the names to report them
// under. A .zip archive is extracted to a temporary directory that cleanup
// removes; its entries are reported as archive/entry.
func resolve(path string) (files, sources []string, cleanup func(), err error) {
	cleanup = func() {}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		files, err = Files(path)
		return files, files, cleanup, err
	}

	dir, err := os.MkdirTemp("", "search-template-*")
	if err != nil {
		return nil, nil, cleanup, eris.Wrap(err, "feed: create temp dir")
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	files, err = fetcher.ExtractTables(path, dir)
	if err != nil {
		cleanup()
		return nil, nil, func() {}, eris.Wrapf(err, "feed: extract %s", path)
	}
	if len(files) == 0 {
		cleanup()
		return nil, nil, func() {}, eris.Errorf("feed: no .xlsx or .csv files in %s", path)
	}
	sources = make([]string, len(files))
	for i, f := range files {
		rel, _ := filepath.Rel(dir, f)
		sources[i] = path + "/" + filepath.ToSlash(rel)
	}
	return files, sources, cleanup, nil
}

// Load reads every file under path (a file, a directory or a .zip archive) and returns the points in file order,
// then row order. Any malformed row fails the whole load with a
// *model.MalformedInputError naming the file and row.
func Load(ctx context.Context, path string, schema Schema) ([]model.Point, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	files, sources, cleanup, err := resolve(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	zap.L().Info("feed: found input files",
		zap.String("feed", schema.Name),
		zap.String("path", path),
		zap.Int("files", len(files)),
	)

	workers := schema.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	perFile := make([][]model.Point, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			tbl, err := fetcher.Read(gCtx, file, schema.readOptions())
			if err != nil {
				return eris.Wrapf(err, "feed: read %s", sources[i])
			}
			tbl.Source = sources[i]
			points, err := Parse(tbl, schema)
			if err != nil {
				return err
			}
			perFile[i] = points
			zap.L().Debug("feed: file loaded", zap.String("file", file), zap.Int("rows", len(points)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Point
	for _, points := range perFile {
		all = append(all, points...)
	}
	zap.L().Info("feed: loaded points", zap.String("feed", schema.Name), zap.Int("points", len(all)))
	return all, nil
}

// Parse converts table rows to points using schema.
func Parse(tbl *fetcher.Table, schema Schema) ([]model.Point, error) {
	cols := tbl.Columns()
	for _, name := range schema.columnNames() {
		if _, ok := cols[name]; !ok {
			return nil, &model.MalformedInputError{File: tbl.Source, Column: name, Reason: "required column missing"}
		}
	}

	c := schema.Columns
	points := make([]model.Point, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		get := func(col string) string {
			if col == "" {
				return ""
			}
			i := cols[col]
			if i >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[i])
		}
		bad := func(col, reason string) error {
			return &model.MalformedInputError{File: tbl.Source, Row: row.Num, Column: col, Reason: reason}
		}

		p := model.Point{
			ID:      get(c.ID),
			Name:    get(c.Name),
			Address: get(c.Address),
			City:    get(c.City),
			Region:  get(c.Region),
			Zip:     get(c.Zip),
		}
		if p.ID == "" {
			return nil, bad(c.ID, "blank identifier")
		}

		var err error
		if p.Latitude, err = parseCoord(get(c.Latitude)); err != nil {
			return nil, bad(c.Latitude, err.Error())
		}
		if p.Longitude, err = parseCoord(get(c.Longitude)); err != nil {
			return nil, bad(c.Longitude, err.Error())
		}
		if !p.Valid() {
			return nil, bad(c.Latitude+"/"+c.Longitude, "coordinate out of range")
		}

		if c.Market != "" {
			key, err := dedupe.MarketKey(get(c.Market), schema.MarketDelimiter, schema.MarketToken)
			if err != nil {
				return nil, bad(c.Market, err.Error())
			}
			p.GroupKey = key
		}

		for _, col := range c.Priority {
			v, err := parseCount(get(col))
			if err != nil {
				return nil, bad(col, err.Error())
			}
			p.Priority += v
		}

		points = append(points, p)
	}
	return points, nil
}

// SortByPriority returns a copy of points ordered by Priority, highest
// first. Ties keep their input order.
func SortByPriority(points []model.Point) []model.Point {
	out := append([]model.Point(nil), points...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

func parseCoord(s string) (float64, error) {
	if s == "" {
		return 0, eris.New("blank coordinate")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("invalid coordinate %q", s)
	}
	return v, nil
}

func parseCount(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("invalid number %q", s)
	}
	return v, nil
}
