package geo

import "fmt"

// MapsDirectionsURL is a Google Maps directions link from origin to dest.
func MapsDirectionsURL(origin, dest Point) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/%s/%s", latLng(origin), latLng(dest))
}

// WazeURL is a Waze navigation deep link to dest.
func WazeURL(dest Point) string {
	return fmt.Sprintf("https://waze.com/ul?ll=%s&navigate=yes", latLng(dest))
}

func latLng(p Point) string {
	return fmt.Sprintf("%v,%v", p.Lat, p.Lng)
}
