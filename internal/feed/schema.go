// Package feed turns tabular exports into validated facility points.
package feed

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/search-template/internal/fetcher"
)

// Columns names the source column for each point field. Market and Zip are
// optional; the rest are required.
type Columns struct {
	ID        string
	Name      string
	Address   string
	City      string
	Region    string
	Zip       string
	Latitude  string
	Longitude string
	Market    string
	// Priority columns are summed into a sort key (blank cells count as 0)
	// and then discarded.
	Priority []string
}

// Schema describes how to read one feed.
type Schema struct {
	Name      string
	Sheet     string
	HeaderRow int
	Delimiter rune
	Charset   string
	Columns   Columns
	// MarketDelimiter and MarketToken derive the market key from the Market
	// column: the label is split on MarketDelimiter and token MarketToken
	// (0-based) is used. An empty delimiter uses the whole label.
	MarketDelimiter string
	MarketToken     int
	// Workers bounds how many input files are parsed concurrently.
	Workers int
}

// Validate checks that every required column is named.
func (s Schema) Validate() error {
	required := []struct{ field, col string }{
		{"id", s.Columns.ID},
		{"name", s.Columns.Name},
		{"address", s.Columns.Address},
		{"city", s.Columns.City},
		{"region", s.Columns.Region},
		{"latitude", s.Columns.Latitude},
		{"longitude", s.Columns.Longitude},
	}
	for _, r := range required {
		if r.col == "" {
			return eris.Errorf("feed: %s: no column configured for %s", s.Name, r.field)
		}
	}
	if s.MarketDelimiter != "" && s.Columns.Market == "" {
		return eris.Errorf("feed: %s: market delimiter set without a market column", s.Name)
	}
	if s.MarketToken < 0 {
		return eris.Errorf("feed: %s: market token must be >= 0", s.Name)
	}
	return nil
}

// columnNames returns every configured source column.
func (s Schema) columnNames() []string {
	c := s.Columns
	names := []string{c.ID, c.Name, c.Address, c.City, c.Region, c.Zip, c.Latitude, c.Longitude, c.Market}
	names = append(names, c.Priority...)
	out := names[:0]
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (s Schema) readOptions() fetcher.Options {
	return fetcher.Options{
		HeaderRow: s.HeaderRow,
		Sheet:     fetcher.XLSXOptions{SheetName: s.Sheet},
		CSV: fetcher.CSVOptions{
			Delimiter:  s.Delimiter,
			Charset:    s.Charset,
			LazyQuotes: true,
		},
	}
}
