package models

import "time"

// OrderStatus represents the current progress of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCooking   OrderStatus = "cooking"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
)

// Next returns the only status an order may move to from s.
// ok is false for the terminal status and for unknown values.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusPending:
		return OrderStatusCooking, true
	case OrderStatusCooking:
		return OrderStatusReady, true
	case OrderStatusReady:
		return OrderStatusDelivered, true
	default:
		return "", false
	}
}

// Valid reports whether s is one of the four known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCooking, OrderStatusReady, OrderStatusDelivered:
		return true
	}
	return false
}

// PaymentStatus is either settled or to be collected on delivery.
type PaymentStatus string

const (
	PaymentPaid PaymentStatus = "paid"
	PaymentDue  PaymentStatus = "due"
)

// PaymentMethod is how the customer pays (or will pay).
type PaymentMethod string

const (
	PaymentDebit    PaymentMethod = "debito"
	PaymentCredit   PaymentMethod = "credito"
	PaymentCash     PaymentMethod = "efectivo"
	PaymentTransfer PaymentMethod = "transferencia"
	PaymentOther    PaymentMethod = "otro"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentDebit, PaymentCredit, PaymentCash, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

// CustomerInfo is the customer snapshot frozen into an order.
type CustomerInfo struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	Number     string `json:"number"`
	Sector     string `json:"sector,omitempty"`
	City       string `json:"city"`
	References string `json:"references,omitempty"`
}

// Address returns the postal part of the snapshot.
func (c CustomerInfo) Address() Address {
	return Address{Street: c.Street, Number: c.Number, Sector: c.Sector, City: c.City}
}

// RouteMeta is display-only distance and time from the shop.
type RouteMeta struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Order is a delivery order. Lines, Total and EstimatedPrepMinutes are
// fixed at creation; only status and payment fields change afterwards.
type Order struct {
	ID                   string           `json:"id"`
	Customer             CustomerInfo     `json:"customer"`
	Lines                []CartLine       `json:"lines"`
	Total                int64            `json:"total"`
	Location             ResolvedLocation `json:"location"`
	MapsURL              string           `json:"maps_url"`
	WazeURL              string           `json:"waze_url"`
	Status               OrderStatus      `json:"status"`
	EstimatedPrepMinutes int              `json:"estimated_prep_minutes"`
	PaymentStatus        PaymentStatus    `json:"payment_status"`
	PaymentMethod        PaymentMethod    `json:"payment_method"`
	DueMethod            PaymentMethod    `json:"due_method,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	CreatedBy            Role             `json:"created_by"`
	PackUntil            *time.Time       `json:"pack_until,omitempty"`
	Packed               bool             `json:"packed"`
	PaidAt               *time.Time       `json:"paid_at,omitempty"`
	Route                *RouteMeta       `json:"route,omitempty"`
	StraightLineMeters   float64          `json:"straight_line_meters"`
}

// Clone returns a deep copy so callers never share mutable state with the store.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = make([]CartLine, len(o.Lines))
	copy(c.Lines, o.Lines)
	if o.PackUntil != nil {
		v := *o.PackUntil
		c.PackUntil = &v
	}
	if o.PaidAt != nil {
		v := *o.PaidAt
		c.PaidAt = &v
	}
	if o.Route != nil {
		v := *o.Route
		c.Route = &v
	}
	return &c
}
