// Package service is the search service's use-case layer: it validates input,
// drives the engine and keeps the catalog metrics current.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/utafrali/storefront/pkg/catalog"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/search/internal/domain"
	"github.com/utafrali/storefront/services/search/internal/engine"
)

// CatalogSource returns the full product catalog in catalog order.
type CatalogSource interface {
	FetchAll(ctx context.Context) ([]catalog.Product, error)
}

type SearchService struct {
	engine     engine.SearchEngine
	source     CatalogSource
	logger     *slog.Logger
	reindexing atomic.Bool
}

// NewSearchService wires the service. A nil source makes Reindex answer
// ServiceUnavailable.
func NewSearchService(eng engine.SearchEngine, source CatalogSource, logger *slog.Logger) *SearchService {
	return &SearchService{engine: eng, source: source, logger: logger}
}

func blank(id string) bool { return strings.TrimSpace(id) == "" }

// IndexProduct adds product, replacing any entry with the same id.
func (s *SearchService) IndexProduct(ctx context.Context, product *catalog.Product) error {
	if product == nil || blank(product.ID) {
		return apperrors.InvalidInput("product id is required")
	}
	if err := s.engine.Index(ctx, product); err != nil {
		return fmt.Errorf("index product %s: %w", product.ID, err)
	}
	s.recordSize()
	s.logger.InfoContext(ctx, "product indexed", slog.String("product_id", product.ID), slog.String("title", product.Title))
	return nil
}

// DeleteProduct removes id from the index; an unknown id is a no-op.
func (s *SearchService) DeleteProduct(ctx context.Context, id string) error {
	if blank(id) {
		return apperrors.InvalidInput("product id is required")
	}
	if err := s.engine.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	s.recordSize()
	s.logger.InfoContext(ctx, "product removed from index", slog.String("product_id", id))
	return nil
}

// BulkIndex indexes products in order and returns how many it took. Entries
// without an id are skipped.
func (s *SearchService) BulkIndex(ctx context.Context, products []catalog.Product) (int, error) {
	keep := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if !blank(p.ID) {
			keep = append(keep, p)
		}
	}
	if err := s.engine.BulkIndex(ctx, keep); err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	s.recordSize()
	s.logger.InfoContext(ctx, "bulk index completed",
		slog.Int("count", len(keep)),
		slog.Int("skipped", len(products)-len(keep)),
	)
	return len(keep), nil
}

func (s *SearchService) Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error) {
	result, err := s.engine.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	outcome := result.Outcome()
	QueriesTotal.WithLabelValues(outcome).Inc()
	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", query.Query),
		slog.String("outcome", outcome),
		slog.Int("total", result.Total),
		slog.Int64("took_ms", result.TookMs),
	)
	return result, nil
}

// Reindex swaps the index for the catalog's current contents. One reindex
// runs at a time and a concurrent caller gets Conflict. A failed fetch leaves
// the index as it was.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, apperrors.ServiceUnavailable("catalog source is not configured", nil)
	}
	if !s.reindexing.CompareAndSwap(false, true) {
		return 0, apperrors.Conflict("reindex already in progress")
	}
	defer s.reindexing.Store(false)

	start := time.Now()
	products, err := s.source.FetchAll(ctx)
	if err == nil {
		err = s.engine.Replace(ctx, products)
	}
	if err != nil {
		return 0, fmt.Errorf("reindex: %w", err)
	}

	elapsed := time.Since(start)
	n := s.recordSize()
	ReindexDuration.Observe(elapsed.Seconds())
	s.logger.InfoContext(ctx, "reindex completed", slog.Int("count", n), slog.Duration("duration", elapsed))
	return n, nil
}

func (s *SearchService) CatalogSize() int {
	return s.engine.Count()
}

func (s *SearchService) recordSize() int {
	n := s.engine.Count()
	CatalogSize.Set(float64(n))
	return n
}
