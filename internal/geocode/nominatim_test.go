package geocode

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sushiDelivery/internal/geo"
	"sushiDelivery/internal/logging"
)

func TestNominatimClient_StructuredSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{
			"format": "jsonv2", "addressdetails": "1", "limit": "8", "countrycodes": "cl",
			"bounded": "1", "viewbox": "-73.2,-41.7,-72.7,-41.3", "dedupe": "1",
			"street": "120 Egaña", "city": "Puerto Montt", "county": "Centro", "country": "Chile",
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("param %s = %q, want %q", k, got, v)
			}
		}
		if q.Has("q") {
			t.Errorf("structured query must not send q")
		}
		if got := r.Header.Get("Accept-Language"); got != "es-CL" {
			t.Errorf("Accept-Language = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "sushi-test/1" {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = w.Write([]byte(`[
			{"lat":"-41.48","lon":"-72.94","display_name":"120, Egaña","address":{"house_number":"120","road":"Egaña"}},
			{"lat":"-41.49","lon":"-72.95","display_name":"Egaña","address":{"housenumber":"122","road":"Egaña"}},
			{"lat":"oops","lon":"-72.95","display_name":"broken","address":{}}
		]`))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL+"/", "sushi-test/1", geo.PuertoMontt, 2*time.Second, logging.Discard())
	cands, err := c.Search(context.Background(), Query{Street: "120 Egaña", City: "Puerto Montt", County: "Centro", Country: "Chile"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(cands) != 3 {
		t.Fatalf("candidates = %d, want 3", len(cands))
	}
	if cands[0].HouseNumber != "120" || cands[0].Road != "Egaña" || cands[0].Lat != -41.48 || cands[0].Lng != -72.94 {
		t.Fatalf("first candidate mismatch: %+v", cands[0])
	}
	if cands[1].HouseNumber != "122" {
		t.Fatalf("housenumber alias not read: %+v", cands[1])
	}
	if !math.IsNaN(cands[2].Lat) {
		t.Fatalf("unparseable lat should be NaN, got %v", cands[2].Lat)
	}
}

func TestNominatimClient_FreeText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "Egaña, Puerto Montt, Chile" || q.Has("street") {
			t.Errorf("unexpected free-text params: %v", q)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL, "", geo.PuertoMontt, time.Second, logging.Discard())
	cands, err := c.Search(context.Background(), Query{Text: "Egaña, Puerto Montt, Chile"})
	if err != nil || len(cands) != 0 {
		t.Fatalf("expected empty result, got %v err=%v", cands, err)
	}
}

func TestNominatimClient_Errors(t *testing.T) {
	status := http.StatusTooManyRequests
	body := `[]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewNominatimClient(srv.URL, "", geo.PuertoMontt, time.Second, logging.Discard())
	if _, err := c.Search(context.Background(), Query{Text: "x"}); err == nil {
		t.Fatalf("expected error for non-200")
	}
	status, body = http.StatusOK, `{"not":"a list"`
	if _, err := c.Search(context.Background(), Query{Text: "x"}); err == nil {
		t.Fatalf("expected error for malformed body")
	}
}
