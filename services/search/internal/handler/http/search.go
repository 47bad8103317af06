package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/pkg/catalog"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
	"github.com/utafrali/storefront/services/search/internal/domain"
	"github.com/utafrali/storefront/services/search/internal/service"
)

const (
	maxQueryLen    = 256
	maxBodyBytes   = 1 << 20
	maxBulkBytes   = 10 << 20
	reindexTimeout = 5 * time.Minute
)

type searchHandler struct {
	svc *service.SearchService
	log *slog.Logger
}

// productBody is a catalog document as posted for indexing. Field names
// follow the document store.
type productBody struct {
	ID           string        `json:"id" validate:"required,notblank,max=128"`
	Title        string        `json:"title" validate:"max=500"`
	Description  string        `json:"description" validate:"max=10000"`
	Color        string        `json:"color" validate:"max=100"`
	Tags         []string      `json:"tags" validate:"max=100,dive,max=100"`
	Keywords     []string      `json:"keywords" validate:"max=100,dive,max=100"`
	Sizes        []string      `json:"sizes" validate:"max=50,dive,max=20"`
	Price        catalog.Price `json:"price"`
	CurrentPrice catalog.Price `json:"currentPrice"`
	Img          string        `json:"img"`
	Gallery      []string      `json:"gallery"`
}

func (b productBody) product() catalog.Product {
	return catalog.Product{
		ID: b.ID, Title: b.Title, Description: b.Description, Color: b.Color,
		Tags: b.Tags, Keywords: b.Keywords, Sizes: b.Sizes,
		Price: b.Price, CurrentPrice: b.CurrentPrice,
		Img: b.Img, Gallery: b.Gallery,
	}
}

type bulkBody struct {
	Products []productBody `json:"products" validate:"required,min=1,max=500,dive"`
}

// decode limits the body to limit bytes and reports a validation failure
// itself; it returns false when the handler should stop.
func decode(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

func (h *searchHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len(q) > maxQueryLen {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: fmt.Sprintf("q must be at most %d bytes", maxQueryLen),
			},
		})
		return
	}

	page := pagination.FromRequest(r)
	result, err := h.svc.Search(r.Context(), &domain.SearchQuery{Query: q, Page: page.Page, PerPage: page.PerPage})
	if err != nil {
		httputil.WriteError(w, r, err, h.log)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

func (h *searchHandler) index(w http.ResponseWriter, r *http.Request) {
	var body productBody
	if !decode(w, r, maxBodyBytes, &body) {
		return
	}
	p := body.product()
	if err := h.svc.IndexProduct(r.Context(), &p); err != nil {
		httputil.WriteError(w, r, err, h.log)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": p.ID, "status": "indexed"})
}

func (h *searchHandler) bulk(w http.ResponseWriter, r *http.Request) {
	var body bulkBody
	if !decode(w, r, maxBulkBytes, &body) {
		return
	}
	products := make([]catalog.Product, len(body.Products))
	for i, p := range body.Products {
		products[i] = p.product()
	}
	n, err := h.svc.BulkIndex(r.Context(), products)
	if err != nil {
		httputil.WriteError(w, r, err, h.log)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"indexed": n, "status": "ok"})
}

func (h *searchHandler) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.log)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// reindex runs in the background and answers 202 unless ?wait=true, in which
// case it blocks and reports the new catalog size.
func (h *searchHandler) reindex(w http.ResponseWriter, r *http.Request) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		n, err := h.svc.Reindex(r.Context())
		if err != nil {
			httputil.WriteError(w, r, err, h.log)
			return
		}
		httputil.WriteData(w, http.StatusOK, map[string]any{"indexed": n, "status": "reindexed"})
		return
	}

	// The reindex outlives the request but keeps its correlation id.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), reindexTimeout)
	go func() {
		defer cancel()
		if _, err := h.svc.Reindex(ctx); err != nil {
			logger.WithContext(ctx, h.log).ErrorContext(ctx, "background reindex failed", slog.String("error", err.Error()))
		}
	}()
	httputil.WriteData(w, http.StatusAccepted, map[string]string{"status": "reindex started"})
}

func (h *searchHandler) stats(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, map[string]int{"catalog_size": h.svc.CatalogSize()})
}
