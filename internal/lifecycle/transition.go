package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"sushiDelivery/models"
)

// transitionRole is the only role allowed to move an order into a status.
var transitionRole = map[models.OrderStatus]models.Role{
	models.OrderStatusCooking:   models.RoleCook,
	models.OrderStatusReady:     models.RoleCook,
	models.OrderStatusDelivered: models.RoleDelivery,
}

// Transition moves order id to status to on behalf of role. Rejections are
// returned as *TransitionError and leave the order untouched.
func (s *Store) Transition(ctx context.Context, role models.Role, id string, to models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, &TransitionError{OrderID: id, To: to, Reason: ErrOrderNotFound}
	}
	reject := func(reason error) (*models.Order, error) {
		s.log.WithFields(logrus.Fields{"order_id": id, "from": o.Status, "to": to, "role": role, "reason": reason}).Info("transition rejected")
		return nil, &TransitionError{OrderID: id, From: o.Status, To: to, Reason: reason}
	}
	if next, ok := o.Status.Next(); !ok || next != to {
		return reject(ErrInvalidTransition)
	}
	if transitionRole[to] != role {
		return reject(ErrWrongRole)
	}
	if to == models.OrderStatusDelivered && o.PaymentStatus != models.PaymentPaid {
		return reject(ErrPaymentDue)
	}

	updated := o.Clone()
	updated.Status = to
	if to == models.OrderStatusReady && updated.PackUntil == nil {
		deadline := s.clock.Now().Add(s.cfg.PackDuration)
		updated.PackUntil = &deadline
		updated.Packed = false
	}
	if err := s.orders.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("save order %s: %w", id, err)
	}
	*o = *updated

	s.log.WithFields(logrus.Fields{"order_id": id, "status": to, "role": role}).Info("order status changed")
	s.notify(EventStatus, o)
	return o.Clone(), nil
}

// ConfirmPayment marks order id as paid. Confirming a paid order is a no-op
// and keeps the original PaidAt. Allowed for delivery and cashier.
func (s *Store) ConfirmPayment(ctx context.Context, role models.Role, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, &TransitionError{OrderID: id, Reason: ErrOrderNotFound}
	}
	if role != models.RoleDelivery && role != models.RoleCashier {
		return nil, &TransitionError{OrderID: id, From: o.Status, Reason: ErrWrongRole}
	}
	if o.PaymentStatus == models.PaymentPaid {
		return o.Clone(), nil
	}

	updated := o.Clone()
	now := s.clock.Now()
	updated.PaymentStatus = models.PaymentPaid
	updated.PaidAt = &now
	if err := s.orders.Save(ctx, updated); err != nil {
		return nil, fmt.Errorf("save order %s: %w", id, err)
	}
	*o = *updated

	s.log.WithFields(logrus.Fields{"order_id": id, "role": role}).Info("payment confirmed")
	s.notify(EventPayment, o)
	return o.Clone(), nil
}

// SweepPacked flags ready orders whose packing deadline has passed and
// returns copies of the orders it changed.
func (s *Store) SweepPacked(ctx context.Context, now time.Time) []*models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []*models.Order
	for _, o := range s.list {
		if o.Status != models.OrderStatusReady || o.Packed || o.PackUntil == nil || now.Before(*o.PackUntil) {
			continue
		}
		updated := o.Clone()
		updated.Packed = true
		if err := s.orders.Save(ctx, updated); err != nil {
			s.log.WithError(err).WithField("order_id", o.ID).Error("persist packed flag")
			continue
		}
		*o = *updated
		s.notify(EventPacked, o)
		changed = append(changed, o.Clone())
	}
	return changed
}

// Run drives the packing timer until ctx is done.
func (s *Store) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	s.log.WithField("interval", s.cfg.TickInterval).Info("packing timer started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("packing timer stopped")
			return nil
		case <-ticker.C:
			if n := len(s.SweepPacked(ctx, s.clock.Now())); n > 0 {
				s.log.WithField("orders", n).Debug("orders packed")
			}
		}
	}
}
