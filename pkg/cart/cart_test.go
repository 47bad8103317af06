package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/catalog"
)

func kurta(qty int, currentPrice catalog.Price) catalog.Product {
	return catalog.Product{
		ID:           "p1",
		Title:        "Cotton Kurta",
		Img:          "kurta.jpg",
		Price:        "₹1,500",
		CurrentPrice: currentPrice,
		Quantity:     qty,
	}
}

func TestAddToCart_NewLine(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(2, "₹1,200"), "M")

	require.Len(t, items, 1)
	got := items[0]
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "M", got.Size)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, int64(1200), got.UnitPrice)
	assert.Equal(t, int64(2400), got.TotalPrice)
	assert.Equal(t, "Cotton Kurta", got.Title)
	assert.Equal(t, "kurta.jpg", got.Img)
	assert.Equal(t, catalog.Price("₹1,200"), got.CurrentPrice)
}

func TestAddToCart_MergesSameIdentity(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(2, "₹1,200"), "M")
	items.AddToCart(kurta(1, "₹1,200"), "M")

	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, int64(3600), items[0].TotalPrice)
}

func TestAddToCart_MergeRepricesFromIncomingProduct(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(1, "₹1,200"), "M")
	items.AddToCart(kurta(1, "₹1,000"), "M")

	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(2000), items[0].TotalPrice)
	// The snapshot still carries the price seen when the line was created.
	assert.Equal(t, catalog.Price("₹1,200"), items[0].CurrentPrice)
}

func TestAddToCart_DifferentSizeIsNewLine(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(1, "500"), "M")
	items.AddToCart(kurta(1, "500"), "L")

	require.Len(t, items, 2)
	assert.Equal(t, 2, items.Count())
	assert.Equal(t, 0, items.Find("p1", "M"))
	assert.Equal(t, 1, items.Find("p1", "L"))
	assert.Equal(t, -1, items.Find("p1", "XL"))
}

func TestAddToCart_MissingQuantityCountsAsOne(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(0, "750"), "S")

	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, int64(750), items[0].TotalPrice)
}

func TestAddToCart_MalformedPriceIsZero(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(2, "call us"), "S")

	require.Len(t, items, 1)
	assert.Equal(t, int64(0), items[0].TotalPrice)
}

func TestUpdateQuantity(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(1, "₹1,200"), "M")

	assert.True(t, items.UpdateQuantity("p1", "M", 4))
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, int64(4800), items[0].TotalPrice)
}

func TestUpdateQuantity_ClampsToOne(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(3, "₹1,200"), "M")

	assert.True(t, items.UpdateQuantity("p1", "M", 0))
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, int64(1200), items[0].TotalPrice)

	items.UpdateQuantity("p1", "M", -7)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestUpdateQuantity_RepricesFromStoredPrice(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(1, "₹1,200"), "M")
	items.AddToCart(kurta(1, "₹1,000"), "M")

	items.UpdateQuantity("p1", "M", 3)
	assert.Equal(t, int64(3600), items[0].TotalPrice)
}

func TestUpdateQuantity_UnknownLineIsNoop(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(1, "100"), "M")
	before := items.Clone()

	assert.False(t, items.UpdateQuantity("p1", "L", 5))
	assert.Equal(t, before, items)
}

func TestRemoveFromCart(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(1, "100"), "M")
	items.AddToCart(kurta(1, "100"), "L")

	assert.True(t, items.RemoveFromCart("p1", "M"))
	require.Len(t, items, 1)
	assert.Equal(t, "L", items[0].Size)
}

func TestRemoveFromCart_EmptyCart(t *testing.T) {
	var items LineItems
	assert.NotPanics(t, func() {
		assert.False(t, items.RemoveFromCart("p1", "M"))
	})
	assert.Empty(t, items)
}

func TestClearCart(t *testing.T) {
	var items LineItems
	items.AddToCart(kurta(1, "100"), "M")
	items.ClearCart()

	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, int64(0), items.Total())
}

func TestTotalAndCount(t *testing.T) {
	items := LineItems{
		{ID: "a", Size: "M", TotalPrice: 500},
		{ID: "b", Size: "M", TotalPrice: 750},
	}
	assert.Equal(t, int64(1250), items.Total())
	assert.Equal(t, 2, items.Count())

	assert.Equal(t, int64(0), LineItems(nil).Total())
	assert.Equal(t, 0, LineItems(nil).Count())
}

func TestClone_IsIndependent(t *testing.T) {
	items := LineItems{{ID: "a", Quantity: 1}}
	c := items.Clone()
	c[0].Quantity = 9
	assert.Equal(t, 1, items[0].Quantity)
}
