package models

// CartLine is one promotion with its quantity.
type CartLine struct {
	Promotion Promotion `json:"promotion"`
	Quantity  int       `json:"quantity"`
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() int64 {
	return l.Promotion.Price * int64(l.Quantity)
}

// Cart is an ordered list of lines, unique by promotion ID.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Add puts one unit of p in the cart, incrementing an existing line.
func (c *Cart) Add(p Promotion) {
	for i := range c.Lines {
		if c.Lines[i].Promotion.ID == p.ID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{Promotion: p, Quantity: 1})
}

// SetQuantity updates the quantity of a line. A quantity <= 0 removes it.
func (c *Cart) SetQuantity(promotionID int64, q int) {
	if q <= 0 {
		c.Remove(promotionID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].Promotion.ID == promotionID {
			c.Lines[i].Quantity = q
			return
		}
	}
}

// Remove drops the line for promotionID if present.
func (c *Cart) Remove(promotionID int64) {
	out := c.Lines[:0]
	for _, l := range c.Lines {
		if l.Promotion.ID != promotionID {
			out = append(out, l)
		}
	}
	c.Lines = out
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool { return len(c.Lines) == 0 }

// Total sums line subtotals.
func (c Cart) Total() int64 {
	var t int64
	for _, l := range c.Lines {
		t += l.Subtotal()
	}
	return t
}

// ItemCount sums quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// EstimatedPrepMinutes is the longest preparation time among the lines.
func (c Cart) EstimatedPrepMinutes() int {
	m := 0
	for _, l := range c.Lines {
		if l.Promotion.PrepMinutes > m {
			m = l.Promotion.PrepMinutes
		}
	}
	return m
}

// Snapshot returns a copy that shares no memory with c.
func (c Cart) Snapshot() []CartLine {
	out := make([]CartLine, len(c.Lines))
	copy(out, c.Lines)
	return out
}
