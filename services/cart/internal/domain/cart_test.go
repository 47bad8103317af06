package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/cart"
)

func TestTotal_SumsLineTotals(t *testing.T) {
	c := &Cart{
		Items: cart.LineItems{
			{ID: "p1", Size: "M", Quantity: 1, TotalPrice: 500},
			{ID: "p2", Size: "L", Quantity: 3, TotalPrice: 750},
		},
	}
	assert.Equal(t, int64(1250), c.Total())
}

func TestTotal_NilItems(t *testing.T) {
	c := &Cart{}
	assert.Equal(t, int64(0), c.Total())
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 0, c.Units())
}

func TestCount_DistinctLines(t *testing.T) {
	c := &Cart{
		Items: cart.LineItems{
			{ID: "p1", Size: "M", Quantity: 4},
			{ID: "p1", Size: "L", Quantity: 1},
		},
	}
	assert.Equal(t, 2, c.Count())
	assert.Equal(t, 5, c.Units())
}

func TestTouch(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Cart{}

	c.Touch(now, 48*time.Hour)

	assert.Equal(t, now, c.UpdatedAt)
	assert.Equal(t, now.Add(48*time.Hour), c.ExpiresAt)
}

func TestCart_JSONCarriesCartKey(t *testing.T) {
	c := &Cart{
		ID:        "c1",
		SessionID: "s1",
		Items:     cart.LineItems{{ID: "p1", Size: "M", Quantity: 2, UnitPrice: 1200, TotalPrice: 2400}},
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var doc cart.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Cart, 1)
	assert.Equal(t, "p1", doc.Cart[0].ID)
	assert.Equal(t, int64(2400), doc.Cart[0].TotalPrice)
}
