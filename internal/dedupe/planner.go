package dedupe

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/search-template/internal/model"
)

// DefaultMaxPasses is the pass ceiling used when none is configured.
const DefaultMaxPasses = 15

// Batch is the output of one pass.
type Batch struct {
	Pass int
	// Points survived both the per-group run and the cross-group check.
	Points []model.Point
	// Candidates is the number of points selected by the per-group runs.
	Candidates int
	// CrossDropped were selected within their group but fell within the
	// threshold of a point from another group.
	CrossDropped []model.Point
	Groups       int
}

// Plan is the result of running passes until the pool is exhausted or the
// ceiling is reached.
type Plan struct {
	Batches []Batch
	// Leftover holds points never decided because the ceiling was reached.
	// They are discarded, not written.
	Leftover []model.Point
}

// Planner runs repeated dedupe passes over a shrinking pool.
type Planner struct {
	deduper   *Deduper
	maxPasses int
}

// NewPlanner creates a Planner. maxPasses <= 0 uses DefaultMaxPasses.
func NewPlanner(d *Deduper, maxPasses int) *Planner {
	if d == nil {
		d = New()
	}
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	return &Planner{deduper: d, maxPasses: maxPasses}
}

// Plan runs passes over points. Each pass regroups whatever remains,
// dedupes every group, cross-checks the combined selections as one group,
// and then removes every per-group selection from the pool, including
// those the cross-check dropped. Suppressed points stay in the pool and get
// another chance in the next pass.
func (pl *Planner) Plan(ctx context.Context, points []model.Point, thresholdMiles float64) (Plan, error) {
	var plan Plan
	pool := points

	for pass := 1; len(pool) > 0 && pass <= pl.maxPasses; pass++ {
		batch, remaining, err := pl.runPass(ctx, pass, pool, thresholdMiles)
		if err != nil {
			return Plan{}, eris.Wrapf(err, "dedupe: pass %d", pass)
		}

		zap.L().Info("dedupe: pass complete",
			zap.Int("pass", pass),
			zap.Int("groups", batch.Groups),
			zap.Int("candidates", batch.Candidates),
			zap.Int("cross_dropped", len(batch.CrossDropped)),
			zap.Int("batch_size", len(batch.Points)),
			zap.Int("remaining", len(remaining)),
		)

		plan.Batches = append(plan.Batches, batch)
		pool = remaining
	}

	if len(pool) > 0 {
		plan.Leftover = pool
		zap.L().Warn("dedupe: pass ceiling reached, discarding remaining points",
			zap.Int("max_passes", pl.maxPasses),
			zap.Int("discarded", len(pool)),
		)
	}

	return plan, nil
}

// runPass computes one batch from pool and returns the pool for the next
// pass. pool is not modified.
func (pl *Planner) runPass(ctx context.Context, pass int, pool []model.Point, thresholdMiles float64) (Batch, []model.Point, error) {
	groups := GroupByKey(pool)

	var candidates []model.Point
	for _, g := range groups {
		res, err := pl.deduper.Dedupe(ctx, g.Points, thresholdMiles)
		if err != nil {
			return Batch{}, nil, eris.Wrapf(err, "dedupe: group %q", g.Key)
		}
		if n := len(res.Suppressed); n > 0 {
			zap.L().Debug("dedupe: trimmed market",
				zap.Int("pass", pass),
				zap.String("market", g.Key),
				zap.Int("selected", len(res.Selected)),
				zap.Int("suppressed", n),
			)
		}
		candidates = append(candidates, res.Selected...)
	}

	cross, err := pl.deduper.Dedupe(ctx, candidates, thresholdMiles)
	if err != nil {
		return Batch{}, nil, eris.Wrap(err, "dedupe: cross-group check")
	}

	return Batch{
		Pass:         pass,
		Points:       cross.Selected,
		Candidates:   len(candidates),
		CrossDropped: cross.Suppressed,
		Groups:       len(groups),
	}, without(pool, idSet(candidates)), nil
}

// ThinByGroup runs a single dedupe per group and returns the selected and
// suppressed points, each in the original input order rather than group
// order.
func (d *Deduper) ThinByGroup(ctx context.Context, points []model.Point, thresholdMiles float64) (kept, dropped []model.Point, err error) {
	drop := make(map[string]struct{})
	for _, g := range GroupByKey(points) {
		res, err := d.Dedupe(ctx, g.Points, thresholdMiles)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "dedupe: group %q", g.Key)
		}
		for _, p := range res.Suppressed {
			drop[p.ID] = struct{}{}
		}
	}

	for _, p := range points {
		if _, ok := drop[p.ID]; ok {
			dropped = append(dropped, p)
		} else {
			kept = append(kept, p)
		}
	}
	return kept, dropped, nil
}

func without(points []model.Point, ids map[string]struct{}) []model.Point {
	out := make([]model.Point, 0, len(points))
	for _, p := range points {
		if _, ok := ids[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}
