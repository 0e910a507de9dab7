package models

import (
	"strings"
	"time"
)

// Customer is an address-book entry used to prefill the order form.
// It is keyed by the normalized phone and is not authoritative for orders.
type Customer struct {
	PhoneKey   string    `db:"phone_key" json:"phone_key"`
	Name       string    `db:"name" json:"name"`
	Phone      string    `db:"phone" json:"phone"`
	Street     string    `db:"street" json:"street"`
	Number     string    `db:"number" json:"number"`
	Sector     string    `db:"sector" json:"sector,omitempty"`
	City       string    `db:"city" json:"city"`
	References string    `db:"references" json:"references,omitempty"`
	Lat        float64   `db:"lat" json:"lat"`
	Lng        float64   `db:"lng" json:"lng"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// NormalizePhone strips spaces and dashes.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(strings.TrimSpace(phone))
}

// CustomerFromOrder builds the address-book record for an order.
func CustomerFromOrder(o *Order) Customer {
	return Customer{
		PhoneKey:   NormalizePhone(o.Customer.Phone),
		Name:       o.Customer.Name,
		Phone:      o.Customer.Phone,
		Street:     o.Customer.Street,
		Number:     o.Customer.Number,
		Sector:     o.Customer.Sector,
		City:       o.Customer.City,
		References: o.Customer.References,
		Lat:        o.Location.Lat,
		Lng:        o.Location.Lng,
		UpdatedAt:  o.CreatedAt,
	}
}
