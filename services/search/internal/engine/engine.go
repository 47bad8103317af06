package engine

import (
	"context"

	"github.com/utafrali/storefront/pkg/catalog"
	"github.com/utafrali/storefront/services/search/internal/domain"
)

// SearchEngine defines the interface for indexing and searching products.
type SearchEngine interface {
	// Index adds a product or replaces the one with the same ID in place.
	Index(ctx context.Context, product *catalog.Product) error

	// Delete removes a product from the search index by its ID.
	Delete(ctx context.Context, id string) error

	// Search executes a search query and returns matching products.
	Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error)

	// BulkIndex indexes products in order.
	BulkIndex(ctx context.Context, products []catalog.Product) error

	// Replace swaps the whole index for products.
	Replace(ctx context.Context, products []catalog.Product) error

	// Count returns the number of indexed products.
	Count() int
}
