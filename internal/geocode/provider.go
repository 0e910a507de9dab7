// Package geocode turns operator-typed addresses into delivery coordinates.
package geocode

import "context"

// Query is a single provider lookup. When Text is set the query is free text;
// otherwise the structured fields are used.
type Query struct {
	Street  string
	City    string
	County  string
	Country string
	Text    string
}

// Structured reports whether q is a structured query.
func (q Query) Structured() bool { return q.Text == "" }

// Candidate is one match returned by a provider, in provider order.
type Candidate struct {
	Lat         float64
	Lng         float64
	DisplayName string
	HouseNumber string
	Road        string
}

// Provider is an external geocoding service.
type Provider interface {
	Search(ctx context.Context, q Query) ([]Candidate, error)
}
