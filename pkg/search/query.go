package search

import (
	"sync"

	"github.com/utafrali/storefront/pkg/catalog"
)

// QueryState holds the current free-text query for one session.
type QueryState struct {
	mu    sync.RWMutex
	query string
}

// Set replaces the current query.
func (q *QueryState) Set(query string) {
	q.mu.Lock()
	q.query = query
	q.mu.Unlock()
}

// Get returns the current query.
func (q *QueryState) Get() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.query
}

// Clear resets the query to empty.
func (q *QueryState) Clear() {
	q.Set("")
}

// Apply runs the current query through e against products.
func (q *QueryState) Apply(e *Engine, products []catalog.Product) []catalog.Product {
	return e.Search(q.Get(), products)
}
