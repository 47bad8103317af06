package domain

import (
	"time"

	"github.com/utafrali/storefront/pkg/cart"
)

// Cart is a shopper's server-side cart. Its JSON form is a superset of the
// device-local document: the line items are stored under "cart".
type Cart struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Items     cart.LineItems `json:"cart"`
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Total is the sum of every line's total price.
func (c *Cart) Total() int64 {
	return c.Items.Total()
}

// Count is the number of distinct lines, as shown on the cart badge.
func (c *Cart) Count() int {
	return c.Items.Count()
}

// Units is the number of units across all lines.
func (c *Cart) Units() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Touch stamps the cart as modified at now and pushes its expiry out by ttl.
func (c *Cart) Touch(now time.Time, ttl time.Duration) {
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(ttl)
}
