package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sushiDelivery/internal/geo"
)

// NominatimClient queries a Nominatim-compatible /search endpoint.
type NominatimClient struct {
	baseURL   string
	userAgent string
	box       geo.BoundingBox
	client    *http.Client
	log       logrus.FieldLogger
}

// NewNominatimClient builds a client bounded to box. Each request is limited by timeout.
func NewNominatimClient(baseURL, userAgent string, box geo.BoundingBox, timeout time.Duration, log logrus.FieldLogger) *NominatimClient {
	return &NominatimClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		box:       box,
		client:    &http.Client{Timeout: timeout},
		log:       log,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Housenumber string `json:"housenumber"`
		Road        string `json:"road"`
	} `json:"address"`
}

func (c *NominatimClient) searchURL(q Query) string {
	v := url.Values{}
	v.Set("format", "jsonv2")
	v.Set("addressdetails", "1")
	v.Set("limit", "8")
	v.Set("countrycodes", "cl")
	v.Set("bounded", "1")
	v.Set("viewbox", c.box.Viewbox())
	v.Set("dedupe", "1")
	if q.Structured() {
		v.Set("street", q.Street)
		v.Set("city", q.City)
		if q.County != "" {
			v.Set("county", q.County)
		}
		if q.Country != "" {
			v.Set("country", q.Country)
		}
	} else {
		v.Set("q", q.Text)
	}
	return c.baseURL + "/search?" + v.Encode()
}

// Search runs one lookup. Non-200 responses and undecodable bodies are errors.
func (c *NominatimClient) Search(ctx context.Context, q Query) ([]Candidate, error) {
	u := c.searchURL(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build nominatim request: %w", err)
	}
	req.Header.Set("Accept-Language", "es-CL")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "body": string(body)}).Warn("nominatim returned non-200")
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}
	out := make([]Candidate, 0, len(places))
	for _, p := range places {
		hn := p.Address.HouseNumber
		if hn == "" {
			hn = p.Address.Housenumber
		}
		out = append(out, Candidate{
			Lat:         parseCoord(p.Lat),
			Lng:         parseCoord(p.Lon),
			DisplayName: p.DisplayName,
			HouseNumber: hn,
			Road:        p.Address.Road,
		})
	}
	c.log.WithFields(logrus.Fields{"structured": q.Structured(), "candidates": len(out)}).Debug("nominatim search")
	return out, nil
}

// parseCoord returns NaN for unparseable input so the candidate is filtered later.
func parseCoord(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
