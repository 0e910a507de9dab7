// Package routing fetches driving routes from the shop to a customer.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sushiDelivery/internal/geo"
)

// Route is a driving path with its totals.
type Route struct {
	Points          []geo.Point `json:"points"`
	DistanceMeters  float64     `json:"distance_m"`
	DurationSeconds float64     `json:"duration_s"`
}

// Provider returns nil, nil when no route exists between the points.
type Provider interface {
	Route(ctx context.Context, from, to geo.Point) (*Route, error)
}

// OSRMClient talks to an OSRM /route/v1 endpoint.
type OSRMClient struct {
	baseURL string
	client  *http.Client
	log     logrus.FieldLogger
}

// NewOSRMClient creates a client with a bounded per-request timeout.
func NewOSRMClient(baseURL string, timeout time.Duration, log logrus.FieldLogger) *OSRMClient {
	return &OSRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

func coord(p geo.Point) string {
	return strconv.FormatFloat(p.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}

// Route requests the fastest driving route from -> to.
func (c *OSRMClient) Route(ctx context.Context, from, to geo.Point) (*Route, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("invalid route endpoints %v -> %v", from, to)
	}
	u := fmt.Sprintf("%s/route/v1/driving/%s;%s?overview=full&geometries=geojson&alternatives=false&steps=false",
		c.baseURL, coord(from), coord(to))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build osrm request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("osrm returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decode osrm response: %w", err)
	}
	// OSRM answers NoRoute and friends with 400 and a JSON body.
	if body.Code != "Ok" || len(body.Routes) == 0 {
		c.log.WithFields(logrus.Fields{"code": body.Code, "status": resp.StatusCode}).Info("no route found")
		return nil, nil
	}

	r := body.Routes[0]
	out := &Route{
		Points:          make([]geo.Point, 0, len(r.Geometry.Coordinates)),
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}
	for _, pair := range r.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		out.Points = append(out.Points, geo.Point{Lat: pair[1], Lng: pair[0]})
	}
	return out, nil
}
