package geo

import (
	"math"
	"testing"
)

func TestMetersToKm(t *testing.T) {
	if got := MetersToKm(1500); got != 1.5 {
		t.Fatalf("MetersToKm(1500) = %v, want 1.5", got)
	}
	if got := MetersToKm(5349); got != 5.3 {
		t.Fatalf("MetersToKm(5349) = %v, want 5.3", got)
	}
}

func TestHaversineMeters_ZeroDistance(t *testing.T) {
	p := Point{Lat: -41.48, Lng: -72.94}
	d := HaversineMeters(p, p)
	if d < 0 || d > 1e-6 {
		t.Fatalf("zero distance expected ~0, got %v", d)
	}
}

func TestHaversineMeters_OneDegreeLatitude(t *testing.T) {
	// One degree of latitude is ~111.2 km everywhere.
	d := HaversineMeters(Point{Lat: -41, Lng: -73}, Point{Lat: -42, Lng: -73})
	if math.Abs(d-111195) > 100 {
		t.Fatalf("one degree latitude = %v m", d)
	}
}

func TestBoundingBox_Contains(t *testing.T) {
	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"centre", Point{Lat: -41.48, Lng: -72.94}, true},
		{"edge", Point{Lat: -41.3, Lng: -72.7}, true},
		{"santiago", Point{Lat: -33.45, Lng: -70.66}, false},
		{"nan", Point{Lat: math.NaN(), Lng: -72.9}, false},
	}
	for _, tc := range cases {
		if got := PuertoMontt.Contains(tc.p); got != tc.want {
			t.Fatalf("%s: Contains = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseViewbox_RoundTrip(t *testing.T) {
	b, err := ParseViewbox(PuertoMontt.Viewbox())
	if err != nil {
		t.Fatalf("ParseViewbox: %v", err)
	}
	if b != PuertoMontt {
		t.Fatalf("got %+v, want %+v", b, PuertoMontt)
	}
	if _, err := ParseViewbox("1,2,3"); err == nil {
		t.Fatalf("expected error for short viewbox")
	}
	if _, err := ParseViewbox("1,2,0,3"); err == nil {
		t.Fatalf("expected error for inverted viewbox")
	}
}

func TestNavigationURLs(t *testing.T) {
	origin := Point{Lat: -41.4662, Lng: -72.999}
	dest := Point{Lat: -41.48, Lng: -72.94}
	if got, want := MapsDirectionsURL(origin, dest), "https://www.google.com/maps/dir/-41.4662,-72.999/-41.48,-72.94"; got != want {
		t.Fatalf("maps url = %q, want %q", got, want)
	}
	if got, want := WazeURL(dest), "https://waze.com/ul?ll=-41.48,-72.94&navigate=yes"; got != want {
		t.Fatalf("waze url = %q, want %q", got, want)
	}
}
