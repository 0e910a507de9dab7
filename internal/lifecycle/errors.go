package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"sushiDelivery/models"
)

// Rejection reasons carried by TransitionError.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrWrongRole         = errors.New("wrong role")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrPaymentDue        = errors.New("payment due")
)

// TransitionError reports a rejected status or payment change. The order is unchanged.
type TransitionError struct {
	OrderID string
	From    models.OrderStatus
	To      models.OrderStatus
	Reason  error
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("order %s: confirm payment: %v", e.OrderID, e.Reason)
	}
	if e.From == "" {
		return fmt.Sprintf("order %s: -> %s: %v", e.OrderID, e.To, e.Reason)
	}
	return fmt.Sprintf("order %s: %s -> %s: %v", e.OrderID, e.From, e.To, e.Reason)
}

func (e *TransitionError) Unwrap() error { return e.Reason }

// ValidationError lists per-field problems with a new order.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid order: " + strings.Join(parts, "; ")
}
