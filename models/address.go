package models

import "strings"

// Precision tags how much a resolved coordinate can be trusted.
type Precision string

const (
	PrecisionExact    Precision = "exact"    // house number confirmed by the provider
	PrecisionRoad     Precision = "road"     // correct street, number unconfirmed
	PrecisionFallback Precision = "fallback" // first candidate of the winning query
	PrecisionManual   Precision = "manual"   // placed or dragged by an operator
)

// Address is the postal address typed by the cashier.
type Address struct {
	Street string `json:"street"`
	Number string `json:"number,omitempty"`
	Sector string `json:"sector,omitempty"`
	City   string `json:"city,omitempty"`
}

// Normalized returns a trimmed copy with City defaulted.
func (a Address) Normalized(defaultCity string) Address {
	out := Address{
		Street: strings.TrimSpace(a.Street),
		Number: strings.TrimSpace(a.Number),
		Sector: strings.TrimSpace(a.Sector),
		City:   strings.TrimSpace(a.City),
	}
	if out.City == "" {
		out.City = defaultCity
	}
	return out
}

// Key is a stable lowercase key used for caching and change detection.
func (a Address) Key() string {
	return strings.ToLower(strings.Join([]string{a.Street, a.Number, a.Sector, a.City}, "|"))
}

// ResolvedLocation is the best-guess coordinate for an address.
type ResolvedLocation struct {
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	Precision     Precision `json:"precision"`
	MatchedNumber bool      `json:"matched_number"`
}
