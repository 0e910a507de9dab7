package models

import "testing"

func TestCart_AddIncrementsExistingLine(t *testing.T) {
	var c Cart
	p := Promotion{ID: 1, Name: "Promo Familiar", Price: 14900, PrepMinutes: 25}
	c.Add(p)
	c.Add(p)
	c.Add(Promotion{ID: 2, Name: "Combo Ejecutivo", Price: 6900, PrepMinutes: 15})

	if len(c.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(c.Lines))
	}
	if c.Lines[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", c.Lines[0].Quantity)
	}
	if got := c.Total(); got != 2*14900+6900 {
		t.Fatalf("total = %d", got)
	}
	if got := c.ItemCount(); got != 3 {
		t.Fatalf("item count = %d, want 3", got)
	}
	if got := c.EstimatedPrepMinutes(); got != 25 {
		t.Fatalf("prep = %d, want 25", got)
	}
}

func TestCart_SetQuantityZeroRemoves(t *testing.T) {
	var c Cart
	c.Add(Promotion{ID: 1, Price: 100})
	c.Add(Promotion{ID: 2, Price: 200})
	c.SetQuantity(1, 0)
	if len(c.Lines) != 1 || c.Lines[0].Promotion.ID != 2 {
		t.Fatalf("unexpected lines: %+v", c.Lines)
	}
	c.SetQuantity(2, 4)
	if c.Total() != 800 {
		t.Fatalf("total = %d, want 800", c.Total())
	}
}

func TestCart_SnapshotIsIndependent(t *testing.T) {
	var c Cart
	c.Add(Promotion{ID: 1, Price: 100})
	snap := c.Snapshot()
	c.Lines[0].Promotion.Price = 999
	c.Lines[0].Quantity = 7
	if snap[0].Promotion.Price != 100 || snap[0].Quantity != 1 {
		t.Fatalf("snapshot mutated: %+v", snap[0])
	}
}

func TestOrderStatus_Next(t *testing.T) {
	cases := []struct {
		from OrderStatus
		want OrderStatus
		ok   bool
	}{
		{OrderStatusPending, OrderStatusCooking, true},
		{OrderStatusCooking, OrderStatusReady, true},
		{OrderStatusReady, OrderStatusDelivered, true},
		{OrderStatusDelivered, "", false},
		{"bogus", "", false},
	}
	for _, tc := range cases {
		got, ok := tc.from.Next()
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%s.Next() = %q,%v want %q,%v", tc.from, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := NormalizePhone(" +56 9 1234-5678 "); got != "+56912345678" {
		t.Fatalf("NormalizePhone = %q", got)
	}
}
