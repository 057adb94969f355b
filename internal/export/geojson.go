package export

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/search-template/internal/model"
)

// FeatureCollection converts points to GeoJSON point features keyed by id.
func FeatureCollection(points []model.Point) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(points))}
	for _, p := range points {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       p.ID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Longitude, p.Latitude}),
			Properties: map[string]interface{}{
				"name":    p.Name,
				"address": p.Address,
				"city":    p.City,
				"state":   p.Region,
				"market":  p.GroupKey,
			},
		})
	}
	return fc
}

// WriteGeoJSON writes points as a GeoJSON FeatureCollection to path.
func WriteGeoJSON(path string, points []model.Point) error {
	data, err := json.Marshal(FeatureCollection(points))
	if err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
