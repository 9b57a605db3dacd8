package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// zoneResolver is the delivery zone lookup the handler serves
type zoneResolver interface {
	ResolveFee(ctx context.Context, city, neighborhood string) (models.FeeQuote, error)
	ListCities(ctx context.Context) ([]string, error)
	ListNeighborhoods(ctx context.Context, city string) ([]string, error)
}

// ZoneHandler handles HTTP requests for delivery zones and fees
type ZoneHandler struct {
	zones  zoneResolver
	logger *slog.Logger
}

// NewZoneHandler creates a new ZoneHandler
func NewZoneHandler(zones zoneResolver, logger *slog.Logger) *ZoneHandler {
	return &ZoneHandler{
		zones:  zones,
		logger: logger,
	}
}

// ListCities handles GET /api/zones/cities
func (h *ZoneHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.zones.ListCities(r.Context())
	if err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"cities": cities}, h.logger)
}

// ListNeighborhoods handles GET /api/zones/cities/{city}/neighborhoods
func (h *ZoneHandler) ListNeighborhoods(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")

	neighborhoods, err := h.zones.ListNeighborhoods(r.Context(), city)
	if err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"city":          city,
		"neighborhoods": neighborhoods,
	}, h.logger)
}

// ResolveFee handles GET /api/zones/fee?city=...&neighborhood=...
// - 200: fee and estimated minutes of the matching zone
// - 422: no available zone serves the address
func (h *ZoneHandler) ResolveFee(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("city") == "" || q.Get("neighborhood") == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "city and neighborhood are required", h.logger)
		return
	}

	quote, err := h.zones.ResolveFee(r.Context(), q.Get("city"), q.Get("neighborhood"))
	if err != nil {
		WriteServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, quote, h.logger)
}
