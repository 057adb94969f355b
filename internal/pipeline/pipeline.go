// Package pipeline builds search templates for one feed: load, exclude,
// thin out nearby sites, write.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/search-template/internal/config"
	"github.com/sells-group/search-template/internal/dedupe"
	"github.com/sells-group/search-template/internal/export"
	"github.com/sells-group/search-template/internal/feed"
	"github.com/sells-group/search-template/internal/filter"
	"github.com/sells-group/search-template/internal/model"
)

// Writer persists template pages.
type Writer interface {
	Write(name string, points []model.Point) ([]string, error)
	WritePages(prefix string, pages [][]model.Point, numbered bool) ([]string, error)
}

// BatchSummary describes one written template.
type BatchSummary struct {
	Name         string `json:"name"`
	Rows         int    `json:"rows"`
	Pass         int    `json:"pass,omitempty"`
	CrossDropped int    `json:"cross_dropped,omitempty"`
}

// Result summarizes a run.
type Result struct {
	RunID     string         `json:"run_id"`
	Feed      string         `json:"feed"`
	Mode      string         `json:"mode"`
	Loaded    int            `json:"loaded"`
	Filter    filter.Report  `json:"filter"`
	Thinned   int            `json:"thinned"`
	Batches   []BatchSummary `json:"batches"`
	Leftover  int            `json:"leftover"`
	Files     []string       `json:"files,omitempty"`
	DryRun    bool           `json:"dry_run"`
	ElapsedMS int64          `json:"elapsed_ms"`
}

// Rows returns the total number of rows across all batches.
func (r *Result) Rows() int {
	n := 0
	for _, b := range r.Batches {
		n += b.Rows
	}
	return n
}

// Option configures a Runner.
type Option func(*Runner)

// WithDeduper sets the dedupe engine (default dedupe.New()).
func WithDeduper(d *dedupe.Deduper) Option {
	return func(r *Runner) {
		r.deduper = d
	}
}

// WithFilterOptions passes options to the exclusion filter.
func WithFilterOptions(opts ...filter.Option) Option {
	return func(r *Runner) {
		r.filterOpts = append(r.filterOpts, opts...)
	}
}

// WithLoadWorkers bounds concurrent input file parsing.
func WithLoadWorkers(n int) Option {
	return func(r *Runner) {
		r.loadWorkers = n
	}
}

// WithDryRun skips writing; the result still lists the batches that would
// have been written.
func WithDryRun(dry bool) Option {
	return func(r *Runner) {
		r.dryRun = dry
	}
}

// Runner executes one feed.
type Runner struct {
	name        string
	cfg         config.FeedConfig
	writer      Writer
	deduper     *dedupe.Deduper
	filterOpts  []filter.Option
	loadWorkers int
	dryRun      bool
}

// New creates a Runner for the named feed.
func New(name string, cfg config.FeedConfig, w Writer, opts ...Option) *Runner {
	r := &Runner{name: name, cfg: cfg, writer: w}
	for _, opt := range opts {
		opt(r)
	}
	if r.deduper == nil {
		r.deduper = dedupe.New()
	}
	return r
}

// Run loads the feed, applies exclusions and writes templates according to
// the feed mode. Malformed input fails the run before anything is written.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:  uuid.NewString(),
		Feed:   r.name,
		Mode:   r.cfg.Mode,
		DryRun: r.dryRun,
	}
	log := zap.L().With(zap.String("run_id", res.RunID), zap.String("feed", r.name))

	if err := r.cfg.Validate(); err != nil {
		return nil, eris.Wrapf(err, "pipeline: feed %s", r.name)
	}

	rules, err := filter.LoadRules(r.cfg.Exclusions)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load exclusions")
	}
	if rules.Empty() {
		log.Debug("pipeline: no exclusion rules configured")
	}

	log.Info("pipeline: preparing search template", zap.String("mode", r.cfg.Mode), zap.String("input", r.cfg.Input))
	points, err := feed.Load(ctx, r.cfg.Input, Schema(r.name, r.cfg, r.loadWorkers))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load feed")
	}
	res.Loaded = len(points)

	points, res.Filter = filter.New(rules, r.filterOpts...).Apply(points)
	if len(r.cfg.Columns.Priority) > 0 {
		points = feed.SortByPriority(points)
	}

	switch r.cfg.Mode {
	case config.ModeFilter:
		err = r.writePages(res, points, false)
	case config.ModePaged:
		var dropped []model.Point
		points, dropped, err = r.deduper.ThinByGroup(ctx, points, r.cfg.ThresholdMiles)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: dedupe")
		}
		res.Thinned = len(dropped)
		log.Info("pipeline: trimmed sites in close proximity",
			zap.Float64("threshold_miles", r.cfg.ThresholdMiles),
			zap.Int("dropped", len(dropped)),
			zap.Int("kept", len(points)),
		)
		err = r.writePages(res, points, true)
	case config.ModePasses:
		err = r.writePasses(ctx, res, points)
	}
	if err != nil {
		return res, err
	}

	res.ElapsedMS = time.Since(start).Milliseconds()
	log.Info("pipeline: search templates complete",
		zap.Int("loaded", res.Loaded),
		zap.Int("templates", len(res.Batches)),
		zap.Int("rows", res.Rows()),
		zap.Int("leftover", res.Leftover),
		zap.Bool("dry_run", res.DryRun),
		zap.Int64("elapsed_ms", res.ElapsedMS),
	)
	return res, nil
}

func (r *Runner) writePages(res *Result, points []model.Point, numbered bool) error {
	pages := dedupe.Paginate(points, r.cfg.PageSize)
	if len(pages) == 0 {
		zap.L().Warn("pipeline: no points left to write", zap.String("feed", r.name))
		return nil
	}

	for i, page := range pages {
		n := i + 1
		if !numbered && len(pages) == 1 {
			n = 0
		}
		res.Batches = append(res.Batches, BatchSummary{Name: export.PageName(r.cfg.OutputPrefix, n), Rows: len(page)})
	}
	if r.dryRun {
		return nil
	}

	files, err := r.writer.WritePages(r.cfg.OutputPrefix, pages, numbered)
	res.Files = append(res.Files, files...)
	if err != nil {
		return eris.Wrap(err, "pipeline: write templates")
	}
	return nil
}

func (r *Runner) writePasses(ctx context.Context, res *Result, points []model.Point) error {
	plan, err := dedupe.NewPlanner(r.deduper, r.cfg.MaxPasses).Plan(ctx, points, r.cfg.ThresholdMiles)
	if err != nil {
		return eris.Wrap(err, "pipeline: plan passes")
	}
	res.Leftover = len(plan.Leftover)

	for _, b := range plan.Batches {
		name := export.PageName(r.cfg.OutputPrefix, b.Pass)
		res.Batches = append(res.Batches, BatchSummary{
			Name:         name,
			Rows:         len(b.Points),
			Pass:         b.Pass,
			CrossDropped: len(b.CrossDropped),
		})
		if r.dryRun {
			continue
		}
		files, err := r.writer.Write(name, b.Points)
		res.Files = append(res.Files, files...)
		if err != nil {
			return eris.Wrapf(err, "pipeline: write pass %d", b.Pass)
		}
	}
	return nil
}

// Schema converts a feed config to a feed.Schema.
func Schema(name string, fc config.FeedConfig, workers int) feed.Schema {
	var delim rune
	if fc.Delimiter != "" {
		delim = []rune(fc.Delimiter)[0]
	}
	c := fc.Columns
	return feed.Schema{
		Name:      name,
		Sheet:     fc.Sheet,
		HeaderRow: fc.HeaderRow,
		Delimiter: delim,
		Charset:   fc.Charset,
		Columns: feed.Columns{
			ID:        c.ID,
			Name:      c.Name,
			Address:   c.Address,
			City:      c.City,
			Region:    c.State,
			Zip:       c.Zip,
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
			Market:    c.Market,
			Priority:  c.Priority,
		},
		MarketDelimiter: fc.MarketDelimiter,
		MarketToken:     fc.MarketToken,
		Workers:         workers,
	}
}
