package domain

import "github.com/shopspring/decimal"

// LineKey identifies a cart line: the product group plus the product id of the
// selected variant (empty when no variant was selected).
type LineKey struct {
	GroupID   string `json:"groupId"`
	VariantID string `json:"variantId,omitempty"`
}

type CartItem struct {
	ProductGroup
	Quantity        int             `json:"quantity"`
	SelectedVariant *ProductVariant `json:"selectedVariant,omitempty"`
}

func (i CartItem) Key() LineKey {
	k := LineKey{GroupID: i.ID}
	if i.SelectedVariant != nil {
		k.VariantID = i.SelectedVariant.ProductID
	}
	return k
}

// Subtotal is unit price times quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is an ordered list of lines. Methods never modify the receiver; they
// return the resulting cart.
type Cart []CartItem

func (c Cart) find(key LineKey) int {
	for i, item := range c {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// Add merges item into the line with the same key, adding its quantity, or
// appends it as a new line. A non-positive quantity counts as 1.
func (c Cart) Add(item CartItem) Cart {
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}

	out := c.clone()
	if i := out.find(item.Key()); i >= 0 {
		out[i].Quantity += qty
		return out
	}

	item.Quantity = qty
	return append(out, item)
}

// UpdateQuantity sets the quantity of the matching line. A quantity of zero or
// less removes the line.
func (c Cart) UpdateQuantity(key LineKey, qty int) Cart {
	if qty <= 0 {
		return c.Remove(key)
	}

	out := c.clone()
	if i := out.find(key); i >= 0 {
		out[i].Quantity = qty
	}
	return out
}

func (c Cart) Remove(key LineKey) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.Key() != key {
			out = append(out, item)
		}
	}
	return out
}

func (c Cart) Line(key LineKey) (CartItem, bool) {
	if i := c.find(key); i >= 0 {
		return c[i], true
	}
	return CartItem{}, false
}

// Total sums price times quantity over all lines.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount sums quantities, not lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
