package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/handler"
	"github.com/dukerupert/bharosa/internal/service"
)

// CartHandler prices browser carts and manages the server-side cart keyed
// by the X-User-ID header.
type CartHandler struct {
	orders service.OrderService
	carts  service.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(orders service.OrderService, carts service.CartService) *CartHandler {
	return &CartHandler{orders: orders, carts: carts}
}

type quoteRequest struct {
	Cart domain.Cart `json:"cart"`
}

// Quote handles POST /api/cart/quote
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"totals": h.orders.Quote(req.Cart)})
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.Get(r.Context(), r.Header.Get(UserIDHeader))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, view)
}

type addToCartRequest struct {
	ProductID string          `json:"productId"`
	Qty       json.RawMessage `json:"qty"`
}

// Add handles POST /api/cart/add. qty defaults to 1.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	qty := int64(1)
	if raw := strings.TrimSpace(string(req.Qty)); raw != "" && raw != "null" {
		qty = domain.ParseQuantity(req.Qty)
	}

	view, err := h.carts.Add(r.Context(), r.Header.Get(UserIDHeader), req.ProductID, qty)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"message": "Item added to cart", "cart": view})
}

type cartLineRequest struct {
	ID  string          `json:"id"`
	Qty json.RawMessage `json:"qty"`
}

type updateCartRequest struct {
	Items json.RawMessage `json:"items"`
}

// Update handles POST /api/cart/update, replacing the whole cart.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateCartRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var items []cartLineRequest
	raw := strings.TrimSpace(string(req.Items))
	if !strings.HasPrefix(raw, "[") || json.Unmarshal(req.Items, &items) != nil {
		handler.ErrorResponse(w, r, domain.NewValidationError("cart.update", "items", "Items array required"))
		return
	}

	lines := make([]service.CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, service.CartLine{ID: it.ID, Qty: domain.ParseQuantity(it.Qty)})
	}

	view, err := h.carts.Replace(r.Context(), r.Header.Get(UserIDHeader), lines)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"message": "Cart updated", "cart": view})
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), r.Header.Get(UserIDHeader)); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}
