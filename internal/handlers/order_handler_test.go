package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

func TestOrderHandler_CreateOrder(t *testing.T) {
	api := newTestAPI(t)
	customer := api.token(t, "user-1", models.RoleCustomer)

	tests := []struct {
		name           string
		token          string
		requestBody    interface{}
		expectedStatus int
		expectedCode   string
		checkResponse  func(*testing.T, models.Order)
	}{
		{
			name:           "successful order",
			token:          customer,
			requestBody:    sampleOrderRequest(),
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, order models.Order) {
				// (3500 + 500 + 200 + 150) × 2; berries are unavailable and dropped
				assert.Equal(t, int64(8700), order.Subtotal)
				assert.Equal(t, int64(500), order.DeliveryFee)
				assert.Equal(t, int64(9200), order.Total)
				assert.Equal(t, "user-1", order.UserID)
				assert.Equal(t, models.StatusPending, order.Status)
				assert.Len(t, order.Items[0].Toppings, 2)
			},
		},
		{
			name:  "other douala zone",
			token: customer,
			requestBody: func() models.OrderRequest {
				r := sampleOrderRequest()
				r.DeliveryAddress.Neighborhood = "Bonapriso"
				return r
			}(),
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, order models.Order) {
				assert.Equal(t, int64(1000), order.DeliveryFee)
			},
		},
		{
			name:           "no session",
			token:          "",
			requestBody:    sampleOrderRequest(),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:           "invalid JSON",
			token:          customer,
			requestBody:    "{invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_FAILED",
		},
		{
			name:           "empty order",
			token:          customer,
			requestBody:    models.OrderRequest{PaymentMethod: models.PaymentCash},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_FAILED",
		},
		{
			name:  "unavailable product",
			token: customer,
			requestBody: func() models.OrderRequest {
				r := sampleOrderRequest()
				r.Items[0] = models.CartItem{ProductID: "6", Quantity: 1, SizeID: "small"}
				return r
			}(),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "PRODUCT_UNAVAILABLE",
		},
		{
			name:  "unavailable size",
			token: customer,
			requestBody: func() models.OrderRequest {
				r := sampleOrderRequest()
				r.Items[0] = models.CartItem{ProductID: "9", Quantity: 1, SizeID: "large"}
				return r
			}(),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "SIZE_UNAVAILABLE",
		},
		{
			name:  "address outside delivery zones",
			token: customer,
			requestBody: func() models.OrderRequest {
				r := sampleOrderRequest()
				r.DeliveryAddress.City = "Kribi"
				r.DeliveryAddress.Neighborhood = "Centre"
				return r
			}(),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "NOT_SERVICEABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/order", tt.token, tt.requestBody)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if tt.expectedCode != "" {
				body := decodeBody[ErrorResponse](t, w)
				assert.Equal(t, tt.expectedCode, body.Code)
				assert.NotEmpty(t, body.Error)
				return
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, decodeBody[models.Order](t, w))
			}
		})
	}
}

func TestOrderHandler_SizeErrorListsValidSizes(t *testing.T) {
	api := newTestAPI(t)
	req := sampleOrderRequest()
	req.Items[0] = models.CartItem{ProductID: "9", Quantity: 1, SizeID: "large"}

	w := api.do(t, http.MethodPost, "/api/order", api.token(t, "user-1", models.RoleCustomer), req)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decodeBody[ErrorResponse](t, w)
	assert.Contains(t, body.Error, "small, medium")
}

func TestOrderHandler_ReadOrders(t *testing.T) {
	api := newTestAPI(t)
	alice := api.token(t, "alice", models.RoleCustomer)
	bob := api.token(t, "bob", models.RoleCustomer)
	staff := api.token(t, "staff-1", models.RoleAdmin)

	w := api.do(t, http.MethodPost, "/api/order", alice, sampleOrderRequest())
	require.Equal(t, http.StatusCreated, w.Code)
	aliceOrder := decodeBody[models.Order](t, w)

	w = api.do(t, http.MethodPost, "/api/order", bob, sampleOrderRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("own orders only", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/order", alice, nil)
		require.Equal(t, http.StatusOK, w.Code)
		orders := decodeBody[[]models.Order](t, w)
		require.Len(t, orders, 1)
		assert.Equal(t, aliceOrder.ID, orders[0].ID)
	})

	t.Run("owner reads order", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/order/"+aliceOrder.ID, alice, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other customer is forbidden", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/order/"+aliceOrder.ID, bob, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("staff reads any order", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/order/"+aliceOrder.ID, staff, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing order", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/order/does-not-exist", staff, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decodeBody[ErrorResponse](t, w).Code)
	})
}
