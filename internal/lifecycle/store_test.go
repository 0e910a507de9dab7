package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sushiDelivery/internal/geo"
	"sushiDelivery/internal/logging"
	"sushiDelivery/internal/routing"
	"sushiDelivery/internal/testutil"
	"sushiDelivery/models"
	"sushiDelivery/repository"
)

var shop = geo.Point{Lat: -41.46619826299714, Lng: -72.99901571534275}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeRoutes struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRoutes) Route(ctx context.Context, from, to geo.Point) (*routing.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &routing.Route{Points: []geo.Point{from, to}, DistanceMeters: 5300, DurationSeconds: 640}, nil
}

type fixture struct {
	store     *Store
	clock     *fakeClock
	routes    *fakeRoutes
	orders    *repository.OrderRepository
	customers *repository.CustomerRepository
	promos    *repository.PromotionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, t.Name())
	f := &fixture{
		clock:     &fakeClock{t: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)},
		routes:    &fakeRoutes{},
		orders:    repository.NewOrderRepository(d),
		customers: repository.NewCustomerRepository(d),
		promos:    repository.NewPromotionRepository(d),
	}
	f.store = NewStore(f.orders, f.customers, f.routes, Config{Origin: shop}, f.clock, logging.Discard())
	return f
}

func (f *fixture) promo(t *testing.T, id int64) models.Promotion {
	t.Helper()
	p, err := f.promos.GetByID(context.Background(), id)
	if err != nil || p == nil {
		t.Fatalf("promotion %d: %v", id, err)
	}
	return *p
}

func validOrder(lines []models.CartLine, status models.PaymentStatus) NewOrder {
	return NewOrder{
		Customer: models.CustomerInfo{
			Name: "Ana Soto", Phone: "+56 9 1234 5678", Street: "Egaña", Number: "120", City: "Puerto Montt",
		},
		Lines:         lines,
		Location:      &models.ResolvedLocation{Lat: -41.48, Lng: -72.94, Precision: models.PrecisionExact, MatchedNumber: true},
		PaymentMethod: models.PaymentDebit,
		PaymentStatus: status,
	}
}

func (f *fixture) create(t *testing.T, status models.PaymentStatus) *models.Order {
	t.Helper()
	o, err := f.store.Cashier().CreateOrder(context.Background(),
		validOrder([]models.CartLine{{Promotion: f.promo(t, 1), Quantity: 1}}, status))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

func TestCreateOrder_Scenario(t *testing.T) {
	f := newFixture(t)
	o := f.create(t, models.PaymentPaid)

	if o.Total != 14900 || o.Status != models.OrderStatusPending || o.PaymentStatus != models.PaymentPaid {
		t.Fatalf("unexpected order: total=%d status=%s payment=%s", o.Total, o.Status, o.PaymentStatus)
	}
	if o.EstimatedPrepMinutes != 25 || o.CreatedBy != models.RoleCashier || o.ID == "" {
		t.Fatalf("derived fields mismatch: %+v", o)
	}
	if o.Location.Precision != models.PrecisionExact || o.Location.Lat != -41.48 {
		t.Fatalf("location mismatch: %+v", o.Location)
	}
	if o.WazeURL != "https://waze.com/ul?ll=-41.48,-72.94&navigate=yes" {
		t.Fatalf("waze url = %s", o.WazeURL)
	}
	if o.Route == nil || o.Route.DistanceMeters != 5300 || o.StraightLineMeters <= 0 {
		t.Fatalf("route metadata missing: %+v %v", o.Route, o.StraightLineMeters)
	}
	if o.PaidAt == nil || !o.PaidAt.Equal(f.clock.Now()) {
		t.Fatalf("paid order should carry PaidAt, got %v", o.PaidAt)
	}

	saved, err := f.orders.GetByID(context.Background(), o.ID)
	if err != nil || saved == nil || saved.Total != 14900 {
		t.Fatalf("order not persisted: %+v err=%v", saved, err)
	}
	c, err := f.customers.GetByPhone(context.Background(), "+56912345678")
	if err != nil || c == nil || c.Street != "Egaña" || c.Lat != -41.48 {
		t.Fatalf("customer not upserted: %+v err=%v", c, err)
	}
}

func TestCreateOrder_TotalFrozenAgainstLaterChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lines := []models.CartLine{{Promotion: f.promo(t, 1), Quantity: 1}, {Promotion: f.promo(t, 2), Quantity: 2}}
	o, err := f.store.Cashier().CreateOrder(ctx, validOrder(lines, models.PaymentDue))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := int64(14900 + 2*6900)
	if o.Total != want {
		t.Fatalf("total = %d, want %d", o.Total, want)
	}

	lines[0].Quantity = 10
	lines[0].Promotion.Price = 1
	if err := f.promos.UpdatePrice(ctx, 1, 99999); err != nil {
		t.Fatalf("update price: %v", err)
	}

	got, _ := f.store.Get(o.ID)
	if got.Total != want || got.Lines[0].Quantity != 1 || got.Lines[0].Promotion.Price != 14900 {
		t.Fatalf("order changed after catalog/cart edits: %+v", got)
	}
	saved, _ := f.orders.GetByID(ctx, o.ID)
	if saved.Total != want || saved.Lines[0].Promotion.Price != 14900 {
		t.Fatalf("persisted order changed: %+v", saved)
	}
}

func TestCreateOrder_ValidationBeforeNetwork(t *testing.T) {
	f := newFixture(t)
	n := NewOrder{
		Customer:      models.CustomerInfo{Name: "A", Phone: "12345", Street: " "},
		PaymentMethod: "bitcoin",
		PaymentStatus: "later",
	}
	_, err := f.store.Cashier().CreateOrder(context.Background(), n)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "phone", "street", "number", "cart", "address", "payment_method", "payment_status"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("missing validation error for %s: %v", field, ve.Fields)
		}
	}
	if f.routes.calls != 0 {
		t.Fatalf("route provider called %d times for invalid input", f.routes.calls)
	}
	if len(f.store.List()) != 0 {
		t.Fatalf("invalid order must not be stored")
	}
}

func TestCreateOrder_CartLinesUniqueByPromotion(t *testing.T) {
	f := newFixture(t)
	p := f.promo(t, 1)
	cases := map[string][]models.CartLine{
		"duplicate": {{Promotion: p, Quantity: 1}, {Promotion: p, Quantity: 2}},
		"zero":      {{Promotion: p, Quantity: 0}},
		"negative":  {{Promotion: f.promo(t, 2), Quantity: -3}},
	}
	for name, lines := range cases {
		_, err := f.store.Cashier().CreateOrder(context.Background(), validOrder(lines, models.PaymentPaid))
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Fields["cart"] == "" {
			t.Fatalf("%s: expected cart validation error, got %v", name, err)
		}
	}
	if len(f.store.List()) != 0 || f.routes.calls != 0 {
		t.Fatalf("rejected carts must not be stored or routed")
	}
}

func TestNewOrder_PhoneFormats(t *testing.T) {
	cases := map[string]bool{
		"+56 9 1234 5678": true,
		"56912345678":     true,
		"+56 9 1234-5678": true,
		"9 1234 5678":     false,
		"+56 2 1234 5678": false,
		"+56 9 12":        false,
	}
	for phone, ok := range cases {
		n := validOrder([]models.CartLine{{Promotion: models.Promotion{ID: 1, Price: 1}, Quantity: 1}}, models.PaymentPaid)
		n.Customer.Phone = phone
		err := n.Validate()
		if (err == nil) != ok {
			t.Errorf("phone %q: valid=%v, err=%v", phone, ok, err)
		}
	}
}

func TestCreateOrder_OnlyCashier(t *testing.T) {
	f := newFixture(t)
	n := validOrder([]models.CartLine{{Promotion: f.promo(t, 1), Quantity: 1}}, models.PaymentPaid)
	if _, err := f.store.CreateOrder(context.Background(), models.RoleCook, n); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("expected ErrWrongRole, got %v", err)
	}
}

func TestCreateOrder_RouteFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.routes.err = errors.New("osrm down")
	o := f.create(t, models.PaymentDue)
	if o.Route != nil {
		t.Fatalf("expected no route metadata, got %+v", o.Route)
	}
	if o.DueMethod != models.PaymentCash || o.PaidAt != nil {
		t.Fatalf("due order defaults mismatch: due=%s paid_at=%v", o.DueMethod, o.PaidAt)
	}
}

func TestTransition_ForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.create(t, models.PaymentPaid)

	_, err := f.store.Transition(ctx, models.RoleCook, o.ID, models.OrderStatusReady)
	var te *TransitionError
	if !errors.As(err, &te) || !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if te.From != models.OrderStatusPending || te.To != models.OrderStatusReady {
		t.Fatalf("error fields mismatch: %+v", te)
	}
	if got, _ := f.store.Get(o.ID); got.Status != models.OrderStatusPending || got.PackUntil != nil {
		t.Fatalf("state changed on rejection: %+v", got)
	}

	if _, err := f.store.Cook().StartCooking(ctx, o.ID); err != nil {
		t.Fatalf("start cooking: %v", err)
	}
	if _, err := f.store.Transition(ctx, models.RoleCook, o.ID, models.OrderStatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("backward transition should be rejected, got %v", err)
	}
	if _, err := f.store.Cook().StartCooking(ctx, o.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("repeated transition should be rejected, got %v", err)
	}
	if _, err := f.store.Transition(ctx, models.RoleCook, "missing", models.OrderStatusCooking); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestTransition_WrongRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.create(t, models.PaymentPaid)

	if _, err := f.store.Transition(ctx, models.RoleCashier, o.ID, models.OrderStatusCooking); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("cashier must not start cooking, got %v", err)
	}
	_, _ = f.store.Cook().StartCooking(ctx, o.ID)
	_, _ = f.store.Cook().MarkReady(ctx, o.ID)
	if _, err := f.store.Transition(ctx, models.RoleCook, o.ID, models.OrderStatusDelivered); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("cook must not deliver, got %v", err)
	}
}

func TestTransition_PaymentDueBlocksDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.create(t, models.PaymentDue)
	_, _ = f.store.Cook().StartCooking(ctx, o.ID)
	_, _ = f.store.Cook().MarkReady(ctx, o.ID)

	_, err := f.store.Delivery().MarkDelivered(ctx, o.ID)
	if !errors.Is(err, ErrPaymentDue) {
		t.Fatalf("expected payment due rejection, got %v", err)
	}
	if got, _ := f.store.Get(o.ID); got.Status != models.OrderStatusReady {
		t.Fatalf("status changed on rejection: %s", got.Status)
	}

	if _, err := f.store.Delivery().ConfirmPayment(ctx, o.ID); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	done, err := f.store.Delivery().MarkDelivered(ctx, o.ID)
	if err != nil || done.Status != models.OrderStatusDelivered {
		t.Fatalf("delivery after payment: %+v err=%v", done, err)
	}
	saved, _ := f.orders.GetByID(ctx, o.ID)
	if saved.Status != models.OrderStatusDelivered || saved.PaymentStatus != models.PaymentPaid {
		t.Fatalf("persisted state mismatch: %s %s", saved.Status, saved.PaymentStatus)
	}
}

func TestConfirmPayment_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.create(t, models.PaymentDue)

	first, err := f.store.Cashier().ConfirmPayment(ctx, o.ID)
	if err != nil || first.PaidAt == nil {
		t.Fatalf("confirm: %+v err=%v", first, err)
	}
	f.clock.Advance(time.Minute)
	second, err := f.store.Delivery().ConfirmPayment(ctx, o.ID)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if !second.PaidAt.Equal(*first.PaidAt) || second.PaymentStatus != models.PaymentPaid {
		t.Fatalf("second confirm changed state: first=%v second=%v", first.PaidAt, second.PaidAt)
	}
	if _, err := f.store.ConfirmPayment(ctx, models.RoleCook, o.ID); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("cook must not confirm payment, got %v", err)
	}
}

func TestPackDeadline_SetOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.create(t, models.PaymentPaid)
	_, _ = f.store.Cook().StartCooking(ctx, o.ID)

	readyAt := f.clock.Now()
	ready, err := f.store.Cook().MarkReady(ctx, o.ID)
	if err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	want := readyAt.Add(DefaultPackDuration)
	if ready.PackUntil == nil || !ready.PackUntil.Equal(want) || ready.Packed {
		t.Fatalf("pack deadline = %v packed=%v, want %v", ready.PackUntil, ready.Packed, want)
	}

	f.clock.Advance(10 * time.Second)
	if _, err := f.store.Cook().MarkReady(ctx, o.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("re-entering ready should be rejected, got %v", err)
	}
	delivered, err := f.store.Delivery().MarkDelivered(ctx, o.ID)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !delivered.PackUntil.Equal(want) {
		t.Fatalf("deadline changed: %v", delivered.PackUntil)
	}
}

func TestSweepPacked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.create(t, models.PaymentPaid)
	_, _ = f.store.Cook().StartCooking(ctx, o.ID)
	_, _ = f.store.Cook().MarkReady(ctx, o.ID)

	events, cancel := f.store.Subscribe(4)
	defer cancel()

	f.clock.Advance(89 * time.Second)
	if got := f.store.SweepPacked(ctx, f.clock.Now()); len(got) != 0 {
		t.Fatalf("packed before deadline: %v", got)
	}
	f.clock.Advance(time.Second)
	got := f.store.SweepPacked(ctx, f.clock.Now())
	if len(got) != 1 || !got[0].Packed {
		t.Fatalf("expected one packed order, got %+v", got)
	}
	if ev := <-events; ev.Kind != EventPacked || ev.Order.ID != o.ID {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if again := f.store.SweepPacked(ctx, f.clock.Now()); len(again) != 0 {
		t.Fatalf("sweep should be idempotent, got %v", again)
	}
	saved, _ := f.orders.GetByID(ctx, o.ID)
	if !saved.Packed {
		t.Fatalf("packed flag not persisted")
	}
}

func TestDeliveryNotGatedOnPacked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.create(t, models.PaymentPaid)
	_, _ = f.store.Cook().StartCooking(ctx, o.ID)
	_, _ = f.store.Cook().MarkReady(ctx, o.ID)
	if _, err := f.store.Delivery().MarkDelivered(ctx, o.ID); err != nil {
		t.Fatalf("delivery before packing deadline: %v", err)
	}
}

func TestRun_SweepsOnTick(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, t.Name())
	clock := &fakeClock{t: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}
	promos := repository.NewPromotionRepository(d)
	s := NewStore(repository.NewOrderRepository(d), repository.NewCustomerRepository(d), nil,
		Config{Origin: shop, TickInterval: 5 * time.Millisecond}, clock, logging.Discard())
	ctx := context.Background()

	p, _ := promos.GetByID(ctx, 4)
	o, err := s.Cashier().CreateOrder(ctx, validOrder([]models.CartLine{{Promotion: *p, Quantity: 1}}, models.PaymentPaid))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _ = s.Cook().StartCooking(ctx, o.ID)
	_, _ = s.Cook().MarkReady(ctx, o.ID)
	clock.Advance(2 * time.Minute)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if got, _ := s.Get(o.ID); got.Packed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("order never packed by the timer")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestSubscribe_EventsInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	events, cancel := f.store.Subscribe(8)

	o := f.create(t, models.PaymentDue)
	_, _ = f.store.Cook().StartCooking(ctx, o.ID)
	_, _ = f.store.Cashier().ConfirmPayment(ctx, o.ID)

	want := []EventKind{EventCreated, EventStatus, EventPayment}
	for i, k := range want {
		ev := <-events
		if ev.Kind != k || ev.Order.ID != o.ID {
			t.Fatalf("event %d = %+v, want %s", i, ev, k)
		}
	}
	cancel()
	if _, ok := <-events; ok {
		t.Fatalf("channel should be closed after cancel")
	}
	cancel()
}

func TestLoad_RestoresPersistedOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, models.PaymentPaid)
	f.clock.Advance(time.Minute)
	second := f.create(t, models.PaymentDue)
	_, _ = f.store.Cook().StartCooking(ctx, first.ID)

	restarted := NewStore(f.orders, f.customers, nil, Config{Origin: shop}, f.clock, logging.Discard())
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	list := restarted.List()
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected restored order list")
	}
	if list[1].Status != models.OrderStatusCooking {
		t.Fatalf("restored status = %s", list[1].Status)
	}
	if _, err := restarted.Cook().MarkReady(ctx, first.ID); err != nil {
		t.Fatalf("transition after reload: %v", err)
	}
}

func TestListForRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, models.PaymentPaid)
	b := f.create(t, models.PaymentPaid)
	_, _ = f.store.Cook().StartCooking(ctx, b.ID)
	_, _ = f.store.Cook().MarkReady(ctx, b.ID)
	_, _ = f.store.Delivery().MarkDelivered(ctx, b.ID)

	if got := f.store.ListForRole(models.RoleCook); len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("cook board mismatch: %d orders", len(got))
	}
	if got := f.store.ListForRole(models.RoleDelivery); len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("delivery board mismatch: %d orders", len(got))
	}
	if got := f.store.ListForRole(models.RoleCashier); len(got) != 2 {
		t.Fatalf("cashier board mismatch: %d orders", len(got))
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, models.PaymentPaid)
	_ = f.create(t, models.PaymentDue)

	other := validOrder([]models.CartLine{{Promotion: f.promo(t, 3), Quantity: 2}}, models.PaymentPaid)
	other.Customer.Name = "Bruno"
	other.Customer.Phone = "+56 9 8765 4321"
	if _, err := f.store.Cashier().CreateOrder(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _ = f.store.Cook().StartCooking(ctx, a.ID)

	d := f.store.Dashboard()
	if d.Revenue != 14900*2+22900*2 {
		t.Fatalf("revenue = %d", d.Revenue)
	}
	if d.ByStatus[models.OrderStatusPending] != 2 || d.ByStatus[models.OrderStatusCooking] != 1 {
		t.Fatalf("by status = %v", d.ByStatus)
	}
	if d.Due != 1 || d.Delivered != 0 {
		t.Fatalf("due=%d delivered=%d", d.Due, d.Delivered)
	}
	if len(d.TopCustomers) != 2 || d.TopCustomers[0].Name != "Bruno" || d.TopCustomers[1].Orders != 2 {
		t.Fatalf("top customers = %+v", d.TopCustomers)
	}
}

func TestTransition_ConcurrentRequestsSerialized(t *testing.T) {
	f := newFixture(t)
	o := f.create(t, models.PaymentPaid)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.store.Cook().StartCooking(context.Background(), o.ID); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ok != 1 {
		t.Fatalf("exactly one StartCooking should succeed, got %d", ok)
	}
}

type failingOrders struct {
	OrderRepository
	fail bool
}

func (f *failingOrders) Save(ctx context.Context, o *models.Order) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.OrderRepository.Save(ctx, o)
}

func TestTransition_PersistFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	repo := &failingOrders{OrderRepository: f.orders}
	s := NewStore(repo, f.customers, nil, Config{Origin: shop}, f.clock, logging.Discard())
	ctx := context.Background()
	o, err := s.Cashier().CreateOrder(ctx, validOrder([]models.CartLine{{Promotion: f.promo(t, 1), Quantity: 1}}, models.PaymentPaid))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.fail = true
	if _, err := s.Cook().StartCooking(ctx, o.ID); err == nil {
		t.Fatalf("expected persistence error")
	}
	if got, _ := s.Get(o.ID); got.Status != models.OrderStatusPending {
		t.Fatalf("status changed despite failed save: %s", got.Status)
	}
}
