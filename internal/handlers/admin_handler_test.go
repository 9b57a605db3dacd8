package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/service"
)

func placeOrder(t *testing.T, api *testAPI, token string) models.Order {
	t.Helper()
	w := api.do(t, http.MethodPost, "/api/order", token, sampleOrderRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[models.Order](t, w)
}

func TestAdminHandler_RequiresStaff(t *testing.T) {
	api := newTestAPI(t)
	customer := api.token(t, "user-1", models.RoleCustomer)
	order := placeOrder(t, api, customer)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{name: "list", method: http.MethodGet, path: "/api/admin/orders"},
		{name: "status", method: http.MethodPatch, path: "/api/admin/orders/" + order.ID + "/status", body: models.StatusUpdateRequest{Status: models.StatusConfirmed}},
		{name: "payment", method: http.MethodPatch, path: "/api/admin/orders/" + order.ID + "/payment", body: models.PaymentUpdateRequest{PaymentStatus: models.PaymentPaid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, tt.method, tt.path, customer, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code)

			w = api.do(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAdminHandler_ListOrders(t *testing.T) {
	api := newTestAPI(t)
	staff := api.token(t, "staff-1", models.RoleAdmin)
	placeOrder(t, api, api.token(t, "alice", models.RoleCustomer))
	second := placeOrder(t, api, api.token(t, "bob", models.RoleCustomer))

	w := api.do(t, http.MethodPatch, "/api/admin/orders/"+second.ID+"/status", staff, models.StatusUpdateRequest{Status: models.StatusPreparing})
	require.Equal(t, http.StatusOK, w.Code)

	tests := []struct {
		query     string
		wantCount int
		wantCode  int
	}{
		{query: "", wantCount: 2, wantCode: http.StatusOK},
		{query: "?status=pending", wantCount: 1, wantCode: http.StatusOK},
		{query: "?status=preparing", wantCount: 1, wantCode: http.StatusOK},
		{query: "?status=delivered", wantCount: 0, wantCode: http.StatusOK},
		{query: "?status=lost", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			w := api.do(t, http.MethodGet, "/api/admin/orders"+tt.query, staff, nil)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Len(t, decodeBody[[]models.Order](t, w), tt.wantCount)
			}
		})
	}
}

func TestAdminHandler_UpdateStatus(t *testing.T) {
	api := newTestAPI(t)
	staff := api.token(t, "staff-1", models.RoleAdmin)
	customer := api.token(t, "user-1", models.RoleCustomer)

	t.Run("jump to delivered stamps delivery time", func(t *testing.T) {
		order := placeOrder(t, api, customer)
		w := api.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", staff, models.StatusUpdateRequest{Status: models.StatusDelivered})
		require.Equal(t, http.StatusOK, w.Code)

		updated := decodeBody[models.Order](t, w)
		assert.Equal(t, models.StatusDelivered, updated.Status)
		assert.NotNil(t, updated.ActualDeliveryTime)

		w = api.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", staff, models.StatusUpdateRequest{Status: models.StatusCancelled})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_TRANSITION", decodeBody[ErrorResponse](t, w).Code)
	})

	t.Run("cancel leaves delivery time empty", func(t *testing.T) {
		order := placeOrder(t, api, customer)
		w := api.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", staff, models.StatusUpdateRequest{Status: models.StatusCancelled})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, decodeBody[models.Order](t, w).ActualDeliveryTime)
	})

	t.Run("unknown status", func(t *testing.T) {
		order := placeOrder(t, api, customer)
		w := api.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", staff, models.StatusUpdateRequest{Status: "flying"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown order", func(t *testing.T) {
		w := api.do(t, http.MethodPatch, "/api/admin/orders/missing/status", staff, models.StatusUpdateRequest{Status: models.StatusConfirmed})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminHandler_StrictPolicy(t *testing.T) {
	api := newTestAPI(t, service.WithTransitionPolicy(service.StrictTransitions{}))
	staff := api.token(t, "staff-1", models.RoleAdmin)
	order := placeOrder(t, api, api.token(t, "user-1", models.RoleCustomer))

	w := api.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", staff, models.StatusUpdateRequest{Status: models.StatusDelivered})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", staff, models.StatusUpdateRequest{Status: models.StatusConfirmed})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminHandler_UpdatePayment(t *testing.T) {
	api := newTestAPI(t)
	staff := api.token(t, "staff-1", models.RoleAdmin)
	order := placeOrder(t, api, api.token(t, "user-1", models.RoleCustomer))

	w := api.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/payment", staff, models.PaymentUpdateRequest{PaymentStatus: models.PaymentPaid})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PaymentPaid, decodeBody[models.Order](t, w).PaymentStatus)

	w = api.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/payment", staff, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
