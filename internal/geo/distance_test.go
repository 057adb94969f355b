package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/search-template/internal/model"
)

func pt(lat, lon float64) model.Point {
	return model.Point{Latitude: lat, Longitude: lon}
}

func TestDistance_KnownPairs(t *testing.T) {
	tests := []struct {
		name string
		a, b model.Point
		want float64 // miles, WGS-84 geodesic
	}{
		// Newport, RI -> Cleveland, OH.
		{"newport to cleveland", pt(41.49008, -71.312796), pt(41.499498, -81.695391), 538.390},
		// One degree of longitude on the equator.
		{"equator degree", pt(0, 0), pt(0, 1), 69.172},
		// One degree of latitude at the equator (shorter than at the poles).
		{"meridian degree", pt(0, 0), pt(1, 0), 68.703},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), 0.01)
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := pt(35.1495, -90.0490)
	b := pt(35.0456, -85.3097)
	assert.Equal(t, Distance(a, b), Distance(b, a))
}

func TestDistance_SamePoint(t *testing.T) {
	a := pt(30.3322, -81.6557)
	assert.Equal(t, 0.0, Distance(a, a))
}

func TestDistance_SmallOffset(t *testing.T) {
	// 0.01 degree of longitude on the equator is roughly 0.69 miles.
	d := Distance(pt(0, 0), pt(0, 0.01))
	assert.InDelta(t, 0.6917, d, 0.001)
	assert.Less(t, d, 1.0)
}

func TestMiles_MatchesDistance(t *testing.T) {
	assert.Equal(t, Distance(pt(10, 10), pt(11, 11)), Miles(10, 10, 11, 11))
}
