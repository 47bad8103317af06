package memory

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/storefront/pkg/catalog"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/search"
	"github.com/utafrali/storefront/services/search/internal/domain"
)

// Engine is an in-memory implementation of the SearchEngine interface.
// Products are kept in insertion order, which is the tie-break order of the
// ranking. Thread-safe via sync.RWMutex.
type Engine struct {
	mu       sync.RWMutex
	products []catalog.Product
	byID     map[string]int
	matcher  *search.Engine
}

// New creates a new in-memory search engine ranking with matcher.
// A nil matcher uses the default search options.
func New(matcher *search.Engine) *Engine {
	if matcher == nil {
		matcher = search.NewEngine(search.DefaultOptions())
	}
	return &Engine{
		byID:    make(map[string]int),
		matcher: matcher,
	}
}

// Index adds a product, or replaces an existing one without moving it.
func (e *Engine) Index(_ context.Context, product *catalog.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.upsert(*product)
	return nil
}

// Delete removes a product from the in-memory index by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.byID[id]
	if !ok {
		return nil
	}
	e.products = append(e.products[:i], e.products[i+1:]...)
	delete(e.byID, id)
	for j := i; j < len(e.products); j++ {
		e.byID[e.products[j].ID] = j
	}
	return nil
}

// Search ranks the indexed products against the query and returns one page.
func (e *Engine) Search(_ context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	start := time.Now()

	e.mu.RLock()
	snapshot := make([]catalog.Product, len(e.products))
	copy(snapshot, e.products)
	e.mu.RUnlock()

	ranking := e.matcher.Rank(query.Query, snapshot)

	params := pagination.New(query.Page, query.PerPage)
	page := pagination.Slice(ranking.Matches, params)

	products := make([]domain.ScoredProduct, len(page))
	for i, m := range page {
		products[i] = domain.ScoredProduct{Product: m.Product, Score: m.Score}
	}

	return &domain.SearchResult{
		Products: products,
		Total:    len(ranking.Matches),
		Page:     params.Page,
		PerPage:  params.PerPage,
		Fallback: ranking.Fallback,
		Empty:    ranking.Empty,
		TookMs:   time.Since(start).Milliseconds(),
	}, nil
}

// BulkIndex adds or updates multiple products in the in-memory index.
func (e *Engine) BulkIndex(_ context.Context, products []catalog.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range products {
		e.upsert(products[i])
	}
	return nil
}

// Replace discards the index and loads products in their given order.
// Later duplicates of an ID overwrite earlier ones in place.
func (e *Engine) Replace(_ context.Context, products []catalog.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.products = make([]catalog.Product, 0, len(products))
	e.byID = make(map[string]int, len(products))
	for i := range products {
		e.upsert(products[i])
	}
	return nil
}

// Count returns the number of indexed products.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.products)
}

// upsert must be called with mu held.
func (e *Engine) upsert(p catalog.Product) {
	if i, ok := e.byID[p.ID]; ok {
		e.products[i] = p
		return
	}
	e.byID[p.ID] = len(e.products)
	e.products = append(e.products, p)
}
