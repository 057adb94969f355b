package filter

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/search-template/internal/geo"
	"github.com/sells-group/search-template/internal/model"
)

// Report counts how many points each rule removed.
type Report struct {
	Input          int `json:"input"`
	ExcludedRegion int `json:"excluded_region"`
	NearBorder     int `json:"near_border"`
	BlockedName    int `json:"blocked_name"`
	Duplicate      int `json:"duplicate"`
	DuplicateID    int `json:"duplicate_id"`
	Output         int `json:"output"`
}

// Removed returns the total number of dropped points.
func (r Report) Removed() int {
	return r.Input - r.Output
}

// Fields returns the report as zap fields.
func (r Report) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("input", r.Input),
		zap.Int("excluded_region", r.ExcludedRegion),
		zap.Int("near_border", r.NearBorder),
		zap.Int("blocked_name", r.BlockedName),
		zap.Int("duplicate", r.Duplicate),
		zap.Int("duplicate_id", r.DuplicateID),
		zap.Int("output", r.Output),
	}
}

// Option configures a Filter.
type Option func(*Filter)

// WithDistance overrides the distance function used by the border rule.
func WithDistance(fn geo.DistanceFunc) Option {
	return func(f *Filter) {
		f.distance = fn
	}
}

// Filter applies a fixed set of Rules.
type Filter struct {
	rules    Rules
	distance geo.DistanceFunc
}

// New creates a Filter for rules.
func New(rules Rules, opts ...Option) *Filter {
	f := &Filter{rules: rules, distance: geo.Distance}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply runs the rules in order and returns the surviving points in input
// order:
//  1. drop points whose region is excluded
//  2. drop border-region points within the border distance of any point
//     dropped by rule 1
//  3. drop points whose trimmed name is blocklisted
//  4. drop repeated (name, address) pairs, keeping the first
//  5. drop repeated ids, keeping the first
func (f *Filter) Apply(points []model.Point) ([]model.Point, Report) {
	rep := Report{Input: len(points)}

	excluded := stringSet(f.rules.ExcludeRegions)
	var kept, dropped []model.Point
	for _, p := range points {
		if excluded[strings.TrimSpace(p.Region)] {
			dropped = append(dropped, p)
			continue
		}
		kept = append(kept, p)
	}
	rep.ExcludedRegion = len(dropped)

	if len(dropped) > 0 && len(f.rules.BorderRegions) > 0 {
		border := stringSet(f.rules.BorderRegions)
		next := kept[:0:0]
		for _, p := range kept {
			if border[strings.TrimSpace(p.Region)] && f.nearAny(p, dropped) {
				rep.NearBorder++
				continue
			}
			next = append(next, p)
		}
		kept = next
	}

	if names := f.rules.NameBlocklist(); len(names) > 0 {
		blocked := stringSet(names)
		next := kept[:0:0]
		for _, p := range kept {
			if blocked[strings.TrimSpace(p.Name)] {
				rep.BlockedName++
				continue
			}
			next = append(next, p)
		}
		kept = next
	}

	type nameAddr struct{ name, addr string }
	seenPair := make(map[nameAddr]bool, len(kept))
	seenID := make(map[string]bool, len(kept))
	next := kept[:0:0]
	for _, p := range kept {
		key := nameAddr{p.Name, p.Address}
		if seenPair[key] {
			rep.Duplicate++
			continue
		}
		seenPair[key] = true
		if seenID[p.ID] {
			rep.DuplicateID++
			continue
		}
		seenID[p.ID] = true
		next = append(next, p)
	}
	kept = next

	rep.Output = len(kept)
	zap.L().Info("filter: exclusions applied", rep.Fields()...)
	return kept, rep
}

func (f *Filter) nearAny(p model.Point, others []model.Point) bool {
	for _, o := range others {
		if f.distance(p, o) <= f.rules.BorderDistanceMiles {
			return true
		}
	}
	return false
}
