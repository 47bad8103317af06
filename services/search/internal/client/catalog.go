// Package client talks to the catalog document store that feeds the search
// index.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/pkg/catalog"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const (
	serviceName = "catalog"

	defaultPageSize = 100
	// maxPages stops a misbehaving catalog from paging forever.
	maxPages = 1000
)

// ProductPage is one page of GET /api/v1/products.
type ProductPage struct {
	Data       []catalog.Product `json:"data"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

// Doer executes a request. *httpclient.Breaker satisfies it.
type Doer interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// CatalogClient pages through the catalog's product listing.
type CatalogClient struct {
	baseURL  string
	http     Doer
	pageSize int
}

// NewCatalogClient creates a client for the catalog at baseURL.
func NewCatalogClient(baseURL string, doer Doer) *CatalogClient {
	return &CatalogClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     doer,
		pageSize: defaultPageSize,
	}
}

// FetchPage returns one page of products.
func (c *CatalogClient) FetchPage(ctx context.Context, page int) (*ProductPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(c.pageSize))
	endpoint := c.baseURL + "/api/v1/products?" + q.Encode()

	resp, err := c.http.Get(ctx, endpoint)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("catalog is unavailable", err)
	}

	var out ProductPage
	if err := httpclient.DecodeJSON(resp, serviceName, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchAll returns every product in catalog order, following total_pages.
// Pages that come back empty end the walk early.
func (c *CatalogClient) FetchAll(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	for page := 1; page <= maxPages; page++ {
		p, err := c.FetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetch catalog page %d: %w", page, err)
		}
		products = append(products, p.Data...)
		if len(p.Data) == 0 || page >= p.TotalPages {
			return products, nil
		}
	}
	return nil, fmt.Errorf("fetch catalog: more than %d pages", maxPages)
}
