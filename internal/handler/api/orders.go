package api

import (
	"net/http"
	"strings"

	"github.com/dukerupert/bharosa/internal/domain"
	"github.com/dukerupert/bharosa/internal/handler"
	"github.com/dukerupert/bharosa/internal/service"
)

// UserIDHeader optionally names the signed-in user placing an order. It is
// used only when the customer block carries no id.
const UserIDHeader = "X-User-ID"

// OrderHandler handles the order and payment routes
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	Cart          domain.Cart          `json:"cart"`
	Address       domain.Address       `json:"address"`
	Customer      domain.Customer      `json:"customer"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.Checkout(r.Context(), service.CheckoutParams{
		Cart:          req.Cart,
		Address:       req.Address,
		Customer:      req.Customer,
		PaymentMethod: domain.PaymentMethod(strings.TrimSpace(string(req.PaymentMethod))),
		UserID:        r.Header.Get(UserIDHeader),
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, map[string]any{"order": order})
}

// List handles GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Get handles GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"order": order})
}

type updateStatusRequest struct {
	Status   string  `json:"status"`
	Location *string `json:"location"`
}

// UpdateStatus handles PATCH /api/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if _, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), req.Status, req.Location); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CreatePaymentIntent handles POST /api/orders/{id}/razorpay-order
//
// Any request body (the storefront sends {amount}) is ignored: the amount
// always comes from the stored order.
func (h *OrderHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.orders.CreatePaymentIntent(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, intent)
}

// ConfirmPayment handles POST /api/orders/{id}/confirm
func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req service.PaymentConfirmation
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orders.ConfirmPayment(r.Context(), r.PathValue("id"), req)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"order": order})
}
