package lifecycle

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sushiDelivery/internal/geo"
	"sushiDelivery/models"
)

var phonePattern = regexp.MustCompile(`^\+?56\s?9\s?[\d\s-]{7,9}$`)

// NewOrder is the cashier's input for CreateOrder.
type NewOrder struct {
	Customer      models.CustomerInfo      `json:"customer"`
	Lines         []models.CartLine        `json:"lines"`
	Location      *models.ResolvedLocation `json:"location"`
	PaymentMethod models.PaymentMethod     `json:"payment_method"`
	PaymentStatus models.PaymentStatus     `json:"payment_status"`
	DueMethod     models.PaymentMethod     `json:"due_method,omitempty"`
}

// Validate checks n field by field. It returns nil or a *ValidationError.
func (n NewOrder) Validate() error {
	f := map[string]string{}
	name := strings.TrimSpace(n.Customer.Name)
	switch {
	case name == "":
		f["name"] = "name is required"
	case utf8.RuneCountInString(name) < 2:
		f["name"] = "name must have at least 2 characters"
	}
	phone := strings.TrimSpace(n.Customer.Phone)
	switch {
	case phone == "":
		f["phone"] = "phone is required"
	case !phonePattern.MatchString(phone):
		f["phone"] = "invalid format (e.g. +56 9 1234 5678)"
	}
	if strings.TrimSpace(n.Customer.Street) == "" {
		f["street"] = "street is required"
	}
	if strings.TrimSpace(n.Customer.Number) == "" {
		f["number"] = "number is required"
	}
	if len(n.Lines) == 0 {
		f["cart"] = "add at least one promotion"
	}
	seen := map[int64]bool{}
	for _, l := range n.Lines {
		if l.Quantity < 1 {
			f["cart"] = fmt.Sprintf("promotion %d has quantity %d", l.Promotion.ID, l.Quantity)
			break
		}
		if seen[l.Promotion.ID] {
			f["cart"] = fmt.Sprintf("promotion %d appears on more than one line", l.Promotion.ID)
			break
		}
		seen[l.Promotion.ID] = true
	}
	if n.Location == nil || !(geo.Point{Lat: n.Location.Lat, Lng: n.Location.Lng}).Valid() {
		f["address"] = "place the pin on the map to confirm the location"
	}
	if !n.PaymentMethod.Valid() {
		f["payment_method"] = "unknown payment method"
	}
	switch n.PaymentStatus {
	case models.PaymentPaid:
	case models.PaymentDue:
		if n.DueMethod != "" && !n.DueMethod.Valid() {
			f["due_method"] = "unknown payment method"
		}
	default:
		f["payment_status"] = "payment status must be paid or due"
	}
	if len(f) > 0 {
		return &ValidationError{Fields: f}
	}
	return nil
}

// CreateOrder validates n, fetches route metadata and records a new pending order.
// Only the cashier may create orders.
func (s *Store) CreateOrder(ctx context.Context, role models.Role, n NewOrder) (*models.Order, error) {
	if role != models.RoleCashier {
		return nil, &TransitionError{To: models.OrderStatusPending, Reason: ErrWrongRole}
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}

	dest := geo.Point{Lat: n.Location.Lat, Lng: n.Location.Lng}
	var routeMeta *models.RouteMeta
	if s.routes != nil {
		rctx, cancel := context.WithTimeout(ctx, s.cfg.RouteTimeout)
		route, err := s.routes.Route(rctx, s.cfg.Origin, dest)
		cancel()
		switch {
		case err != nil:
			s.log.WithError(err).Warn("route fetch failed, creating order without route")
		case route != nil:
			routeMeta = &models.RouteMeta{DistanceMeters: route.DistanceMeters, DurationSeconds: route.DurationSeconds}
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate order id: %w", err)
	}
	cart := models.Cart{Lines: n.Lines}
	customer := n.Customer
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	customer.Street = strings.TrimSpace(customer.Street)
	customer.Number = strings.TrimSpace(customer.Number)
	customer.Sector = strings.TrimSpace(customer.Sector)
	customer.City = strings.TrimSpace(customer.City)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	o := &models.Order{
		ID:                   id.String(),
		Customer:             customer,
		Lines:                cart.Snapshot(),
		Total:                cart.Total(),
		Location:             *n.Location,
		MapsURL:              geo.MapsDirectionsURL(s.cfg.Origin, dest),
		WazeURL:              geo.WazeURL(dest),
		Status:               models.OrderStatusPending,
		EstimatedPrepMinutes: cart.EstimatedPrepMinutes(),
		PaymentStatus:        n.PaymentStatus,
		PaymentMethod:        n.PaymentMethod,
		CreatedAt:            now,
		CreatedBy:            role,
		Route:                routeMeta,
		StraightLineMeters:   geo.HaversineMeters(s.cfg.Origin, dest),
	}
	if n.PaymentStatus == models.PaymentDue {
		o.DueMethod = n.DueMethod
		if o.DueMethod == "" {
			o.DueMethod = models.PaymentCash
		}
	} else {
		paid := now
		o.PaidAt = &paid
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	if s.customers != nil {
		if err := s.customers.Upsert(ctx, models.CustomerFromOrder(o)); err != nil {
			s.log.WithError(err).WithField("order_id", o.ID).Warn("customer upsert failed")
		}
	}
	s.list = append([]*models.Order{o}, s.list...)
	s.byID[o.ID] = o

	s.log.WithFields(logrus.Fields{
		"order_id":  o.ID,
		"total":     o.Total,
		"precision": o.Location.Precision,
		"payment":   o.PaymentStatus,
	}).Info("order created")
	s.notify(EventCreated, o)
	return o.Clone(), nil
}
