// Package cart aggregates storefront line items.
//
// A line item is identified by product id plus selected size; at most one
// exists per identity. Prices are integers produced by catalog.ParsePrice.
// None of the mutations fail: unknown lines are ignored and malformed prices
// count as zero.
package cart

import (
	"github.com/utafrali/storefront/pkg/catalog"
)

// StorageKey is the fixed namespace the cart is persisted under.
const StorageKey = "storefront-cart"

// LineItem is one cart entry. The product fields are a snapshot taken when
// the line was created and are not refreshed afterwards.
type LineItem struct {
	ID         string `json:"id"`
	Size       string `json:"size"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unitPrice"`
	TotalPrice int64  `json:"totalPrice"`

	Title        string        `json:"title,omitempty"`
	Img          string        `json:"img,omitempty"`
	Color        string        `json:"color,omitempty"`
	Price        catalog.Price `json:"price,omitempty"`
	CurrentPrice catalog.Price `json:"currentPrice,omitempty"`
}

// LineItems is the ordered cart contents.
type LineItems []LineItem

// Document is the persisted cart layout: {"cart": [...]}.
type Document struct {
	Cart LineItems `json:"cart"`
}

// Find returns the index of the line for (id, size), or -1.
func (l LineItems) Find(id, size string) int {
	for i := range l {
		if l[i].ID == id && l[i].Size == size {
			return i
		}
	}
	return -1
}

// AddToCart adds product.Quantity units of product in size. An existing line
// for the same identity has its quantity increased and its total repriced from
// the incoming product's current price; its snapshot fields are kept.
// A quantity below 1 counts as 1.
func (l *LineItems) AddToCart(product catalog.Product, size string) {
	qty := product.Quantity
	if qty < 1 {
		qty = 1
	}
	unit := catalog.ParsePrice(product.CurrentPrice)

	if i := l.Find(product.ID, size); i >= 0 {
		item := &(*l)[i]
		item.Quantity += qty
		item.UnitPrice = unit
		item.TotalPrice = unit * int64(item.Quantity)
		return
	}

	*l = append(*l, LineItem{
		ID:           product.ID,
		Size:         size,
		Quantity:     qty,
		UnitPrice:    unit,
		TotalPrice:   unit * int64(qty),
		Title:        product.Title,
		Img:          product.Img,
		Color:        product.Color,
		Price:        product.Price,
		CurrentPrice: product.CurrentPrice,
	})
}

// UpdateQuantity sets the quantity of the (id, size) line, clamped to at
// least 1, and reprices it from the line's stored current price.
// It reports whether a line was found.
func (l LineItems) UpdateQuantity(id, size string, quantity int) bool {
	i := l.Find(id, size)
	if i < 0 {
		return false
	}
	if quantity < 1 {
		quantity = 1
	}
	unit := catalog.ParsePrice(l[i].CurrentPrice)
	l[i].Quantity = quantity
	l[i].UnitPrice = unit
	l[i].TotalPrice = unit * int64(quantity)
	return true
}

// RemoveFromCart deletes the (id, size) line and reports whether it existed.
func (l *LineItems) RemoveFromCart(id, size string) bool {
	i := l.Find(id, size)
	if i < 0 {
		return false
	}
	*l = append((*l)[:i], (*l)[i+1:]...)
	return true
}

// ClearCart empties the cart.
func (l *LineItems) ClearCart() {
	*l = LineItems{}
}

// Total is the sum of every line's total price.
func (l LineItems) Total() int64 {
	var total int64
	for _, item := range l {
		total += item.TotalPrice
	}
	return total
}

// Count is the number of distinct lines.
func (l LineItems) Count() int {
	return len(l)
}

// Clone returns an independent copy of l.
func (l LineItems) Clone() LineItems {
	out := make(LineItems, len(l))
	copy(out, l)
	return out
}
