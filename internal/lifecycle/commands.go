package lifecycle

import (
	"context"

	"sushiDelivery/models"
)

// CashierCommands are the actions available at the register.
type CashierCommands struct{ s *Store }

// CookCommands are the actions available in the kitchen.
type CookCommands struct{ s *Store }

// DeliveryCommands are the actions available to couriers.
type DeliveryCommands struct{ s *Store }

func (s *Store) Cashier() *CashierCommands   { return &CashierCommands{s} }
func (s *Store) Cook() *CookCommands         { return &CookCommands{s} }
func (s *Store) Delivery() *DeliveryCommands { return &DeliveryCommands{s} }

func (c *CashierCommands) CreateOrder(ctx context.Context, n NewOrder) (*models.Order, error) {
	return c.s.CreateOrder(ctx, models.RoleCashier, n)
}

func (c *CashierCommands) ConfirmPayment(ctx context.Context, id string) (*models.Order, error) {
	return c.s.ConfirmPayment(ctx, models.RoleCashier, id)
}

func (c *CookCommands) StartCooking(ctx context.Context, id string) (*models.Order, error) {
	return c.s.Transition(ctx, models.RoleCook, id, models.OrderStatusCooking)
}

func (c *CookCommands) MarkReady(ctx context.Context, id string) (*models.Order, error) {
	return c.s.Transition(ctx, models.RoleCook, id, models.OrderStatusReady)
}

func (c *DeliveryCommands) MarkDelivered(ctx context.Context, id string) (*models.Order, error) {
	return c.s.Transition(ctx, models.RoleDelivery, id, models.OrderStatusDelivered)
}

func (c *DeliveryCommands) ConfirmPayment(ctx context.Context, id string) (*models.Order, error) {
	return c.s.ConfirmPayment(ctx, models.RoleDelivery, id)
}
