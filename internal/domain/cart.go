package domain

import "github.com/shopspring/decimal"

// CartItem is one cart line. Product is a snapshot taken when the item was
// first added, so later catalog changes do not reprice the cart.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is price × quantity for this line.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the ordered list of cart lines. It holds at most one line per
// product ID and every quantity is at least one.
type Cart []CartItem

// Total sums the line totals. An empty cart totals exactly zero.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Count sums the quantities of all lines.
func (c Cart) Count() int {
	var n int
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

// IndexOf returns the position of the line for productID, or -1.
func (c Cart) IndexOf(productID string) int {
	for i := range c {
		if c[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for i, item := range c {
		out[i] = CartItem{Product: item.Product.Clone(), Quantity: item.Quantity}
	}
	return out
}

// Normalize merges duplicate lines and drops lines with a non-positive
// quantity, keeping first-seen order. It repairs carts read from storage.
func (c Cart) Normalize() Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.Quantity <= 0 || item.Product.ID == "" {
			continue
		}
		if idx := out.IndexOf(item.Product.ID); idx >= 0 {
			out[idx].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}
