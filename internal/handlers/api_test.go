package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/auth"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/repository"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/service"
)

// testAPI is the full router over in-memory stores
type testAPI struct {
	handler http.Handler
	tokens  *auth.TokenService
	orders  *service.OrderService
}

func newTestAPI(t *testing.T, opts ...service.Option) *testAPI {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	zoneRepo := repository.NewInMemoryZoneRepository()
	for _, z := range repository.SeedZones() {
		require.NoError(t, zoneRepo.Upsert(context.Background(), z))
	}
	orderRepo := repository.NewInMemoryOrderRepository()

	products := service.NewProductService(repository.NewInMemoryProductRepository())
	zones := service.NewZoneService(zoneRepo, nil)
	orders := service.NewOrderService(products, zones, orderRepo, service.NewOrderNumberGenerator(orderRepo, 100), opts...)
	tokens := auth.NewTokenService("test-key", "food-delivery", time.Hour)

	return &testAPI{
		handler: NewRouter(RouterConfig{
			Logger:   log,
			Sessions: tokens,
			Health:   NewHealthHandler(log, "test", nil),
			Products: NewProductHandler(products, log),
			Zones:    NewZoneHandler(zones, log),
			Orders:   NewOrderHandler(orders, log),
			Admin:    NewAdminHandler(orders, log),
		}),
		tokens: tokens,
		orders: orders,
	}
}

func (a *testAPI) token(t *testing.T, userID string, role models.Role) string {
	t.Helper()
	token, err := a.tokens.Issue(userID, role)
	require.NoError(t, err)
	return token
}

// do sends a request through the router. body is JSON-encoded unless it is a string.
func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), "body: %s", w.Body.String())
	return v
}

func sampleOrderRequest() models.OrderRequest {
	return models.OrderRequest{
		Items: []models.CartItem{
			{ProductID: "1", Quantity: 2, SizeID: "medium", ToppingIDs: []string{"syrup", "cream", "berries"}},
		},
		PaymentMethod: models.PaymentMobileMoneyB,
		DeliveryAddress: models.DeliveryAddress{
			Street:       "Boulevard de la Liberté",
			Neighborhood: "Akwa",
			City:         "Douala",
			Phone:        "+237 677 00 00 00",
		},
	}
}
