// Package dedupe thins facility points so that no two points in an output
// batch sit within a distance threshold of each other.
package dedupe

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/search-template/internal/geo"
	"github.com/sells-group/search-template/internal/model"
)

// defaultParallelMin is the candidate count below which distances are
// computed inline rather than fanned out.
const defaultParallelMin = 512

// Result partitions the input of one Dedupe call. Selected and Suppressed
// preserve input order and together contain every input point exactly once.
type Result struct {
	Selected   []model.Point
	Suppressed []model.Point
}

// SelectedIDs returns the ids of selected points as a set.
func (r Result) SelectedIDs() map[string]struct{} {
	return idSet(r.Selected)
}

// SuppressedIDs returns the ids of suppressed points as a set.
func (r Result) SuppressedIDs() map[string]struct{} {
	return idSet(r.Suppressed)
}

// Option configures a Deduper.
type Option func(*Deduper)

// WithDistance overrides the distance function (default geo.Distance).
func WithDistance(fn geo.DistanceFunc) Option {
	return func(d *Deduper) {
		d.distance = fn
	}
}

// WithWorkers sets how many goroutines compute distances for a single
// selected point. Values below 2 disable the fan-out.
func WithWorkers(n int) Option {
	return func(d *Deduper) {
		d.workers = n
	}
}

// WithParallelMin sets the minimum number of candidates before the
// distance computation is fanned out.
func WithParallelMin(n int) Option {
	return func(d *Deduper) {
		d.parallelMin = n
	}
}

// Deduper runs the greedy threshold-cover selection.
type Deduper struct {
	distance    geo.DistanceFunc
	workers     int
	parallelMin int
}

// New creates a Deduper.
func New(opts ...Option) *Deduper {
	d := &Deduper{
		distance:    geo.Distance,
		workers:     runtime.GOMAXPROCS(0),
		parallelMin: defaultParallelMin,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dedupe walks points in their given order. Each point not yet suppressed is
// selected, and every other not-yet-suppressed point within thresholdMiles
// (inclusive) of it is suppressed. There is no backtracking: the result
// depends on input order. Points are treated as one group; callers
// partition by group key beforehand.
func (d *Deduper) Dedupe(ctx context.Context, points []model.Point, thresholdMiles float64) (Result, error) {
	suppressed := make([]bool, len(points))
	selected := make([]bool, len(points))

	for i := range points {
		if suppressed[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		selected[i] = true

		// Every earlier point is already decided, so the points still under
		// consideration are the later ones that have not been suppressed.
		var cand []int
		for j := i + 1; j < len(points); j++ {
			if !suppressed[j] && points[j].ID != points[i].ID {
				cand = append(cand, j)
			}
		}
		if len(cand) == 0 {
			continue
		}

		dists, err := d.distances(ctx, points[i], points, cand)
		if err != nil {
			return Result{}, err
		}
		for k, j := range cand {
			if dists[k] <= thresholdMiles {
				suppressed[j] = true
			}
		}
	}

	var res Result
	for i, p := range points {
		if selected[i] {
			res.Selected = append(res.Selected, p)
		} else {
			res.Suppressed = append(res.Suppressed, p)
		}
	}
	return res, nil
}

// distances returns distance(origin, points[cand[k]]) for each k. The
// computation is pure, so it is split across workers when the candidate
// list is large; the suppression decision stays with the caller.
func (d *Deduper) distances(ctx context.Context, origin model.Point, points []model.Point, cand []int) ([]float64, error) {
	out := make([]float64, len(cand))
	if d.workers < 2 || len(cand) < d.parallelMin {
		for k, j := range cand {
			out[k] = d.distance(origin, points[j])
		}
		return out, nil
	}

	chunk := (len(cand) + d.workers - 1) / d.workers
	g, gCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(cand); start += chunk {
		start := start
		end := min(start+chunk, len(cand))
		g.Go(func() error {
			for k := start; k < end; k++ {
				if k%256 == 0 && gCtx.Err() != nil {
					return gCtx.Err()
				}
				out[k] = d.distance(origin, points[cand[k]])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func idSet(points []model.Point) map[string]struct{} {
	set := make(map[string]struct{}, len(points))
	for _, p := range points {
		set[p.ID] = struct{}{}
	}
	return set
}
