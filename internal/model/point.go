package model

import (
	"errors"
	"fmt"
	"math"
)

// Point is a single facility location read from a feed. Points are never
// mutated after loading; pipeline stages only classify them.
type Point struct {
	ID        string  `json:"id"`
	GroupKey  string  `json:"group_key,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Passthrough attributes, carried to the output template but never used
	// in distance math.
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Zip     string `json:"zip,omitempty"`

	// Priority orders points before grouping (higher first). It is derived
	// from feed-specific inventory columns and never written out.
	Priority float64 `json:"-"`
}

// ValidCoordinates reports whether lat/lon are finite and within the WGS-84 range.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Valid reports whether the point's coordinates are in range.
func (p Point) Valid() bool {
	return ValidCoordinates(p.Latitude, p.Longitude)
}

// IDs returns the ids of points in order.
func IDs(points []Point) []string {
	ids := make([]string, len(points))
	for i, p := range points {
		ids[i] = p.ID
	}
	return ids
}

// MalformedInputError reports input that cannot be processed: a missing
// required column, a bad coordinate, or an unusable market label. Row is
// 1-based as displayed by spreadsheet tools; 0 means the error is not tied
// to a single row (e.g. a missing header column).
type MalformedInputError struct {
	File   string
	Row    int
	Column string
	Reason string
}

func (e *MalformedInputError) Error() string {
	loc := e.File
	if e.Row > 0 {
		loc = fmt.Sprintf("%s row %d", loc, e.Row)
	}
	if e.Column != "" {
		return fmt.Sprintf("malformed input: %s column %q: %s", loc, e.Column, e.Reason)
	}
	return fmt.Sprintf("malformed input: %s: %s", loc, e.Reason)
}

// IsMalformedInput returns true if err (or any error in its chain) is a MalformedInputError.
func IsMalformedInput(err error) bool {
	var me *MalformedInputError
	return errors.As(err, &me)
}
