package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/auth"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/service"
)

// OrderHandler handles the customer-facing order routes. Every route expects a session.
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder handles POST /api/order
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		WriteServiceError(w, r, service.ErrUnauthorized, h.log)
		return
	}

	var req models.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), session.UserID, req)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	WriteJSON(w, http.StatusCreated, order, h.log)
}

// ListOrders handles GET /api/order and returns the caller's own orders, newest first
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		WriteServiceError(w, r, service.ErrUnauthorized, h.log)
		return
	}

	orders, err := h.orderService.ListUserOrders(r.Context(), session.UserID)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, orders, h.log)
}

// GetOrder handles GET /api/order/{orderId}. Customers only see their own orders; staff see all.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		WriteServiceError(w, r, service.ErrUnauthorized, h.log)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	if !session.IsStaff() && order.UserID != session.UserID {
		WriteServiceError(w, r, service.ErrForbidden, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}
