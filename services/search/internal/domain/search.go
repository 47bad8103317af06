package domain

import (
	"github.com/utafrali/storefront/pkg/catalog"
)

// Search outcomes, used as the metrics label and in logs.
const (
	OutcomeMatched  = "matched"
	OutcomeFallback = "fallback"
	OutcomeEmpty    = "empty"
)

// SearchQuery holds all parameters for a search request.
type SearchQuery struct {
	Query   string `json:"query"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// ScoredProduct is a product in a result page with its relevance score.
// Score is zero for empty-query and fallback results.
type ScoredProduct struct {
	catalog.Product
	Score int `json:"score"`
}

// SearchResult holds the paginated search response.
type SearchResult struct {
	Products []ScoredProduct `json:"products"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PerPage  int             `json:"per_page"`
	// Fallback is set when the query matched nothing and the whole catalog
	// was returned instead.
	Fallback bool  `json:"fallback"`
	Empty    bool  `json:"-"`
	TookMs   int64 `json:"took_ms"`
}

// Outcome classifies the result for metrics.
func (r *SearchResult) Outcome() string {
	switch {
	case r.Empty:
		return OutcomeEmpty
	case r.Fallback:
		return OutcomeFallback
	default:
		return OutcomeMatched
	}
}
