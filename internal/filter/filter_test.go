package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/search-template/internal/model"
)

func lineDistance(a, b model.Point) float64 {
	return math.Abs(a.Longitude - b.Longitude)
}

func site(id, name, addr, region string, x float64) model.Point {
	return model.Point{ID: id, Name: name, Address: addr, Region: region, Longitude: x}
}

func TestApply_ExcludedRegion(t *testing.T) {
	in := []model.Point{
		site("1", "A", "1 Main", "TN", 0),
		site("2", "B", "2 Main", "GA", 0),
		site("3", "C", "3 Main", "FL", 0),
		site("4", "D", "4 Main", "GA", 0),
	}
	out, rep := New(Rules{ExcludeRegions: []string{"GA"}}).Apply(in)
	assert.Equal(t, []string{"1", "3"}, model.IDs(out))
	assert.Equal(t, 2, rep.ExcludedRegion)
	assert.Equal(t, 4, rep.Input)
	assert.Equal(t, 2, rep.Output)
	assert.Equal(t, 2, rep.Removed())
	for _, p := range out {
		assert.NotEqual(t, "GA", p.Region)
	}
}

func TestApply_BorderInclusive(t *testing.T) {
	rules := Rules{
		ExcludeRegions:      []string{"GA"},
		BorderRegions:       []string{"TN"},
		BorderDistanceMiles: 7,
	}
	in := []model.Point{
		site("ga", "Excluded", "x", "GA", 0),
		site("edge", "At Border", "a", "TN", 7),
		site("far", "Far", "b", "TN", 7.01),
		site("fl", "Other Region", "c", "FL", 1),
	}
	out, rep := New(rules, WithDistance(lineDistance)).Apply(in)
	assert.Equal(t, []string{"far", "fl"}, model.IDs(out))
	assert.Equal(t, 1, rep.NearBorder)
}

func TestApply_BorderWithoutExcludedPoints(t *testing.T) {
	rules := Rules{BorderRegions: []string{"TN"}, BorderDistanceMiles: 100}
	in := []model.Point{site("1", "A", "a", "TN", 0)}
	out, rep := New(rules, WithDistance(lineDistance)).Apply(in)
	assert.Len(t, out, 1)
	assert.Zero(t, rep.NearBorder)
}

func TestApply_BlockedNames(t *testing.T) {
	rules := Rules{
		BlockedNames: []string{"  Southern Oaks ", "Standifer Place"},
		FlaggedHTML:  []string{`<span>Site Beech Tree Manor with buffer 5 miles is outside of eligible market areas.</span>`},
	}
	in := []model.Point{
		site("1", "Southern Oaks", "a", "TN", 0),
		site("2", " Standifer Place ", "b", "TN", 0),
		site("3", "Beech Tree Manor", "c", "TN", 0),
		site("4", "Southern Oaks North", "d", "TN", 0),
	}
	out, rep := New(rules).Apply(in)
	assert.Equal(t, []string{"4"}, model.IDs(out))
	assert.Equal(t, 3, rep.BlockedName)
}

func TestApply_Duplicates(t *testing.T) {
	in := []model.Point{
		site("1", "A", "1 Main", "TN", 0),
		site("2", "A", "1 Main", "TN", 5),
		site("3", "A", "2 Main", "TN", 0),
		site("1", "Z", "9 Elm", "TN", 0),
	}
	out, rep := New(Rules{}).Apply(in)
	assert.Equal(t, []string{"1", "3"}, model.IDs(out))
	assert.Equal(t, 1, rep.Duplicate)
	assert.Equal(t, 1, rep.DuplicateID)
}

func TestApply_Empty(t *testing.T) {
	out, rep := New(Rules{ExcludeRegions: []string{"GA"}}).Apply(nil)
	assert.Empty(t, out)
	assert.Equal(t, Report{}, rep)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := []model.Point{
		site("1", "A", "a", "GA", 0),
		site("2", "B", "b", "TN", 0),
	}
	before := append([]model.Point(nil), in...)
	_, _ = New(Rules{ExcludeRegions: []string{"GA"}}).Apply(in)
	require.Equal(t, before, in)
}

func TestExtractFlaggedNames(t *testing.T) {
	html := `inserted" style="">Site Mercy Harvard Care Center with buffer 5 miles is outside of eligible market areas.</span>` +
		`<span>Site Ashwood Square was not found in an eligible market.</span>`
	assert.Equal(t, []string{"Mercy Harvard Care Center", "Ashwood Square"}, ExtractFlaggedNames(html))
	assert.Empty(t, ExtractFlaggedNames("no matches here"))
}

func TestNameBlocklist_Dedupes(t *testing.T) {
	rules := Rules{
		BlockedNames: []string{"Mercy Harvard Care Center", " Mercy Harvard Care Center", ""},
		FlaggedHTML:  []string{"Site Mercy Harvard Care Center with buffer"},
	}
	assert.Equal(t, []string{"Mercy Harvard Care Center"}, rules.NameBlocklist())
}
