package lifecycle

import (
	"sort"

	"sushiDelivery/models"
)

// CustomerTotal aggregates spend for one customer.
type CustomerTotal struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Total  int64  `json:"total"`
	Orders int    `json:"orders"`
}

// Dashboard summarizes the order history for the cashier.
type Dashboard struct {
	Revenue      int64                      `json:"revenue"`
	ByStatus     map[models.OrderStatus]int `json:"by_status"`
	Due          int                        `json:"due"`
	Delivered    int                        `json:"delivered"`
	TopCustomers []CustomerTotal            `json:"top_customers"`
}

const topCustomers = 5

// Dashboard computes totals over every stored order.
func (s *Store) Dashboard() Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Dashboard{ByStatus: map[models.OrderStatus]int{}}
	byKey := map[string]*CustomerTotal{}
	var keys []string
	for _, o := range s.list {
		d.Revenue += o.Total
		d.ByStatus[o.Status]++
		if o.PaymentStatus == models.PaymentDue {
			d.Due++
		}
		if o.Status == models.OrderStatusDelivered {
			d.Delivered++
		}
		key := models.NormalizePhone(o.Customer.Phone)
		if key == "" {
			key = o.Customer.Name
		}
		ct, ok := byKey[key]
		if !ok {
			ct = &CustomerTotal{Name: o.Customer.Name, Phone: o.Customer.Phone}
			byKey[key] = ct
			keys = append(keys, key)
		}
		ct.Total += o.Total
		ct.Orders++
	}

	all := make([]CustomerTotal, 0, len(keys))
	for _, k := range keys {
		all = append(all, *byKey[k])
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Total > all[j].Total })
	if len(all) > topCustomers {
		all = all[:topCustomers]
	}
	d.TopCustomers = all
	return d
}
