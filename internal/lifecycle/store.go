// Package lifecycle owns the order store: creation, forward-only status
// transitions, payment confirmation and the packing timer.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sushiDelivery/internal/geo"
	"sushiDelivery/internal/routing"
	"sushiDelivery/models"
)

// OrderRepository persists orders.
type OrderRepository interface {
	Save(ctx context.Context, o *models.Order) error
	List(ctx context.Context) ([]*models.Order, error)
}

// CustomerRepository is the address book updated on every new order.
type CustomerRepository interface {
	Upsert(ctx context.Context, c models.Customer) error
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Config holds shop-level settings.
type Config struct {
	Origin       geo.Point
	PackDuration time.Duration
	TickInterval time.Duration
	RouteTimeout time.Duration
}

const (
	DefaultPackDuration = 90 * time.Second
	DefaultTickInterval = time.Second
	DefaultRouteTimeout = 6 * time.Second
)

// EventKind names what changed.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventStatus  EventKind = "status"
	EventPayment EventKind = "payment"
	EventPacked  EventKind = "packed"
)

// Event is a change notification carrying a copy of the order after the change.
type Event struct {
	Kind  EventKind     `json:"kind"`
	Order *models.Order `json:"order"`
}

// Store is the single owner of order state. All mutations are serialized
// by mu and persisted before they become visible.
type Store struct {
	orders    OrderRepository
	customers CustomerRepository
	routes    routing.Provider
	clock     Clock
	cfg       Config
	log       logrus.FieldLogger

	mu   sync.Mutex
	list []*models.Order // newest first
	byID map[string]*models.Order

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewStore creates an empty store. routes may be nil, in which case orders
// are created without route metadata.
func NewStore(orders OrderRepository, customers CustomerRepository, routes routing.Provider, cfg Config, clock Clock, log logrus.FieldLogger) *Store {
	if cfg.PackDuration <= 0 {
		cfg.PackDuration = DefaultPackDuration
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.RouteTimeout <= 0 {
		cfg.RouteTimeout = DefaultRouteTimeout
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Store{
		orders:    orders,
		customers: customers,
		routes:    routes,
		clock:     clock,
		cfg:       cfg,
		log:       log,
		byID:      map[string]*models.Order{},
		subs:      map[int]chan Event{},
	}
}

// Load replaces in-memory state with the persisted orders.
func (s *Store) Load(ctx context.Context) error {
	list, err := s.orders.List(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = list
	s.byID = make(map[string]*models.Order, len(list))
	for _, o := range list {
		s.byID[o.ID] = o
	}
	s.log.WithField("orders", len(list)).Info("order store loaded")
	return nil
}

// Get returns a copy of the order.
func (s *Store) Get(id string) (*models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	return o.Clone(), ok
}

// List returns copies of all orders, newest first.
func (s *Store) List() []*models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Order, 0, len(s.list))
	for _, o := range s.list {
		out = append(out, o.Clone())
	}
	return out
}

// ListForRole returns the orders shown on role's board, newest first.
func (s *Store) ListForRole(role models.Role) []*models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Order
	for _, o := range s.list {
		if role.Visible(o.Status) {
			out = append(out, o.Clone())
		}
	}
	return out
}

// Subscribe registers a change listener. Events that do not fit in the
// buffer are dropped for that subscriber. cancel closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notify(kind EventKind, o *models.Order) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- Event{Kind: kind, Order: o.Clone()}:
		default:
			s.log.WithFields(logrus.Fields{"subscriber": id, "kind": kind}).Warn("subscriber too slow, event dropped")
		}
	}
}
