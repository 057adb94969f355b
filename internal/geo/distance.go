// Package geo provides ellipsoidal distance math for facility points.
package geo

import (
	"github.com/jftuga/geodist"

	"github.com/sells-group/search-template/internal/model"
)

// DistanceFunc computes the distance in miles between two points.
type DistanceFunc func(a, b model.Point) float64

// Distance returns the geodesic distance in miles between a and b on the
// WGS-84 ellipsoid (Vincenty inverse). It is symmetric and returns 0 for
// coincident points. Coordinates are assumed valid; callers reject
// out-of-range values at load time.
//
// Vincenty fails to converge only for nearly antipodal pairs, which cannot
// occur within a market. In that case the spherical distance is returned.
func Distance(a, b model.Point) float64 {
	return Miles(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Miles is Distance on raw coordinates.
func Miles(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	// Order the endpoints so the iteration sees identical inputs regardless of
	// argument order; Vincenty is not bit-for-bit symmetric otherwise.
	p, q := geodist.Coord{Lat: lat1, Lon: lon1}, geodist.Coord{Lat: lat2, Lon: lon2}
	if lat2 < lat1 || (lat2 == lat1 && lon2 < lon1) {
		p, q = q, p
	}

	mi, _, err := geodist.VincentyDistance(p, q)
	if err != nil {
		mi, _ = geodist.HaversineDistance(p, q)
	}
	return mi
}
