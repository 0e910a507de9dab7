package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// BoundingBox is an axis-aligned lat/lng rectangle.
type BoundingBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// PuertoMontt is the delivery area around the shop.
var PuertoMontt = BoundingBox{MinLng: -73.2, MinLat: -41.7, MaxLng: -72.7, MaxLat: -41.3}

// Contains reports whether p lies inside the box (edges included).
func (b BoundingBox) Contains(p Point) bool {
	if !p.Valid() {
		return false
	}
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Viewbox formats the box as "minLng,minLat,maxLng,maxLat".
func (b BoundingBox) Viewbox() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return strings.Join([]string{f(b.MinLng), f(b.MinLat), f(b.MaxLng), f(b.MaxLat)}, ",")
}

// ParseViewbox parses the Viewbox format.
func ParseViewbox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("viewbox %q: want 4 comma-separated values", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("viewbox %q: %w", s, err)
		}
		v[i] = f
	}
	b := BoundingBox{MinLng: v[0], MinLat: v[1], MaxLng: v[2], MaxLat: v[3]}
	if b.MinLng > b.MaxLng || b.MinLat > b.MaxLat {
		return BoundingBox{}, fmt.Errorf("viewbox %q: min exceeds max", s)
	}
	return b, nil
}
