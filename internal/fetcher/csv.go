package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune   // default ','
	Comment    rune   // comment character (0 = none)
	Charset    string // WHATWG encoding label, e.g. "windows-1252"; empty means UTF-8
	LazyQuotes bool
	TrimSpace  bool
	HeaderRow  int // 1-based; rows above it are skipped
}

// ReadCSV reads a CSV file into a Table.
func ReadCSV(ctx context.Context, path string, opts CSVOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open file %s", path)
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, eris.Wrapf(err, "csv: unsupported charset %q", opts.Charset)
		}
		r = enc.NewDecoder().Reader(f)
	}

	rowCh, errCh := StreamCSV(ctx, r, opts)
	var raw [][]string
	for row := range rowCh {
		raw = append(raw, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "csv: %s", path)
	}

	return newTable(path, raw, opts.HeaderRow)
}

// StreamCSV reads CSV records and sends them to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
