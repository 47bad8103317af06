package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/pkg/catalog"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
	"github.com/utafrali/storefront/services/cart/internal/domain"
	"github.com/utafrali/storefront/services/cart/internal/service"
)

const maxBodyBytes = 64 << 10

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CartProductRequest is the product snapshot sent when adding to the cart.
type CartProductRequest struct {
	ID           string        `json:"id" validate:"required,notblank,max=128"`
	Title        string        `json:"title" validate:"max=500"`
	Color        string        `json:"color" validate:"max=100"`
	Img          string        `json:"img" validate:"max=2048"`
	Sizes        []string      `json:"sizes" validate:"max=50,dive,max=20"`
	Price        catalog.Price `json:"price"`
	CurrentPrice catalog.Price `json:"currentPrice"`
	Quantity     int           `json:"quantity" validate:"gte=0"`
}

// AddToCartRequest is the JSON request body for adding an item to the cart.
type AddToCartRequest struct {
	Product CartProductRequest `json:"product" validate:"required"`
	Size    string             `json:"size" validate:"required,notblank,max=20"`
}

func (r AddToCartRequest) toProduct() catalog.Product {
	p := r.Product
	return catalog.Product{
		ID:           p.ID,
		Title:        p.Title,
		Color:        p.Color,
		Img:          p.Img,
		Sizes:        p.Sizes,
		Price:        p.Price,
		CurrentPrice: p.CurrentPrice,
		Quantity:     p.Quantity,
	}
}

// UpdateQuantityRequest is the JSON request body for setting a line's quantity.
// Values below 1 are clamped to 1.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartResponse is a cart with its derived totals.
type CartResponse struct {
	*domain.Cart
	Total int64 `json:"total"`
	Count int   `json:"count"`
}

func newCartResponse(c *domain.Cart) CartResponse {
	return CartResponse{Cart: c, Total: c.Total(), Count: c.Count()}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCart(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(c))
}

// AddToCart handles POST /api/v1/cart/items
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req AddToCartRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	c, err := h.service.AddToCart(r.Context(), middleware.SessionIDFromContext(r.Context()), req.toProduct(), req.Size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(c))
}

// UpdateQuantity handles PUT /api/v1/cart/items/{id}/{size}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, size, ok := lineParams(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	c, err := h.service.UpdateQuantity(r.Context(), middleware.SessionIDFromContext(r.Context()), id, size, *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(c))
}

// RemoveFromCart handles DELETE /api/v1/cart/items/{id}/{size}
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, size, ok := lineParams(w, r)
	if !ok {
		return
	}

	c, err := h.service.RemoveFromCart(r.Context(), middleware.SessionIDFromContext(r.Context()), id, size)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, newCartResponse(c))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// lineParams extracts the line identity from the path. Sizes such as
// "Free Size" arrive percent-encoded.
func lineParams(w http.ResponseWriter, r *http.Request) (id, size string, ok bool) {
	id, errID := url.PathUnescape(chi.URLParam(r, "id"))
	size, errSize := url.PathUnescape(chi.URLParam(r, "size"))
	if errID != nil || errSize != nil || id == "" || size == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "id and size are required"},
		})
		return "", "", false
	}
	return id, size, true
}
