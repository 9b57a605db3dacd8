package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/service"
)

// AdminHandler handles the staff order routes. The router guards them with RequireRole(admin).
type AdminHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(orderService *service.OrderService, log *slog.Logger) *AdminHandler {
	return &AdminHandler{
		orderService: orderService,
		log:          log,
	}
}

// ListOrders handles GET /api/admin/orders?status=...
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))

	orders, err := h.orderService.ListAllOrders(r.Context(), status)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, orders, h.log)
}

// UpdateStatus handles PATCH /api/admin/orders/{orderId}/status
// - 200: updated order
// - 404: order not found
// - 409: order is delivered or cancelled, or the transition policy refuses the move
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), chi.URLParam(r, "orderId"), req.Status)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}

// UpdatePayment handles PATCH /api/admin/orders/{orderId}/payment
func (h *AdminHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}

	order, err := h.orderService.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "orderId"), req.PaymentStatus)
	if err != nil {
		WriteServiceError(w, r, err, h.log)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.log)
}
