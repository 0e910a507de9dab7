package models

import "strings"

// Role is the operator role a principal acts as.
type Role string

const (
	RoleCashier  Role = "cashier"
	RoleCook     Role = "cook"
	RoleDelivery Role = "delivery"
)

// ParseRole lowercases and validates a role name.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleCashier, RoleCook, RoleDelivery:
		return r, true
	}
	return "", false
}

// Visible reports whether an order in status s shows up on this role's board.
func (r Role) Visible(s OrderStatus) bool {
	switch r {
	case RoleCook:
		return s == OrderStatusPending || s == OrderStatusCooking || s == OrderStatusReady
	case RoleDelivery:
		return s == OrderStatusReady || s == OrderStatusDelivered
	default:
		return true
	}
}
