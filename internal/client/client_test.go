package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/auth"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/client"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/handlers"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/notify"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/poller"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/repository"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/service"
)

type testServer struct {
	*httptest.Server
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	zoneRepo := repository.NewInMemoryZoneRepository()
	for _, z := range repository.SeedZones() {
		require.NoError(t, zoneRepo.Upsert(context.Background(), z))
	}
	orderRepo := repository.NewInMemoryOrderRepository()
	products := service.NewProductService(repository.NewInMemoryProductRepository())
	zones := service.NewZoneService(zoneRepo, nil)
	orders := service.NewOrderService(products, zones, orderRepo, nil)
	tokens := auth.NewTokenService("test-key", "food-delivery", time.Hour)

	server := httptest.NewServer(handlers.NewRouter(handlers.RouterConfig{
		Logger:   log,
		Sessions: tokens,
		Health:   handlers.NewHealthHandler(log, "test", nil),
		Products: handlers.NewProductHandler(products, log),
		Zones:    handlers.NewZoneHandler(zones, log),
		Orders:   handlers.NewOrderHandler(orders, log),
		Admin:    handlers.NewAdminHandler(orders, log),
	}))
	t.Cleanup(server.Close)
	return &testServer{Server: server, tokens: tokens}
}

func (s *testServer) client(t *testing.T, userID string, role models.Role) *client.Client {
	t.Helper()
	token, err := s.tokens.Issue(userID, role)
	require.NoError(t, err)
	c, err := client.New(s.URL, token, client.WithHTTPClient(s.Client()))
	require.NoError(t, err)
	return c
}

func orderRequest() models.OrderRequest {
	return models.OrderRequest{
		Items:         []models.CartItem{{ProductID: "1", Quantity: 1, SizeID: "medium"}},
		PaymentMethod: models.PaymentCash,
		DeliveryAddress: models.DeliveryAddress{
			Street:       "Rue Joss",
			Neighborhood: "Akwa",
			City:         "Douala",
			Phone:        "677000000",
		},
	}
}

func TestNew_RejectsGarbageToken(t *testing.T) {
	_, err := client.New("http://localhost", "not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestClient_FetchOrders_RoleAware(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	alice := srv.client(t, "alice", models.RoleCustomer)
	bob := srv.client(t, "bob", models.RoleCustomer)
	staff := srv.client(t, "admin", models.RoleAdmin)

	_, err := alice.CreateOrder(ctx, orderRequest())
	require.NoError(t, err)
	_, err = bob.CreateOrder(ctx, orderRequest())
	require.NoError(t, err)

	own, err := alice.FetchOrders(ctx)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "alice", own[0].UserID)

	all, err := staff.FetchOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	alice := srv.client(t, "alice", models.RoleCustomer)
	bob := srv.client(t, "bob", models.RoleCustomer)

	order, err := alice.CreateOrder(ctx, orderRequest())
	require.NoError(t, err)

	_, err = bob.GetOrder(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, client.IsCode(err, "FORBIDDEN"))

	_, err = alice.UpdateStatus(ctx, order.ID, models.StatusConfirmed)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	req := orderRequest()
	req.DeliveryAddress.Neighborhood = "Nowhere"
	_, err = alice.CreateOrder(ctx, req)
	assert.True(t, client.IsCode(err, "NOT_SERVICEABLE"))
}

func TestClient_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	tokens := auth.NewTokenService("k", "food-delivery", time.Hour)
	token, err := tokens.Issue("alice", models.RoleCustomer)
	require.NoError(t, err)
	c, err := client.New(server.URL, token)
	require.NoError(t, err)

	_, err = c.FetchOrders(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}

// The watcher pipeline: staff and customer pollers observe the same orders and each session only
// gets the notifications addressed to it.
func TestWatcherPipeline(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)

	alice := srv.client(t, "alice", models.RoleCustomer)
	staff := srv.client(t, "admin", models.RoleAdmin)

	staffNotes := notify.NewDispatcher(staff.Session(), notify.NewMemoryStore())
	aliceNotes := notify.NewDispatcher(alice.Session(), notify.NewMemoryStore())
	staffPoller := poller.New(staff, poller.WithDiffHandler(func(ctx context.Context, changes []poller.Change) {
		staffNotes.HandleDiff(ctx, changes)
	}))
	alicePoller := poller.New(alice, poller.WithDiffHandler(func(ctx context.Context, changes []poller.Change) {
		aliceNotes.HandleDiff(ctx, changes)
	}))

	require.NoError(t, staffPoller.Tick(ctx))
	require.NoError(t, alicePoller.Tick(ctx))

	order, err := alice.CreateOrder(ctx, orderRequest())
	require.NoError(t, err)

	require.NoError(t, staffPoller.Tick(ctx))
	require.NoError(t, alicePoller.Tick(ctx))

	_, err = staff.UpdateStatus(ctx, order.ID, models.StatusReady)
	require.NoError(t, err)

	require.NoError(t, staffPoller.Tick(ctx))
	require.NoError(t, alicePoller.Tick(ctx))

	staffList, err := staffNotes.List(ctx)
	require.NoError(t, err)
	require.Len(t, staffList, 1)
	assert.Equal(t, models.NotificationNewOrder, staffList[0].Type)
	assert.Equal(t, order.OrderNumber, staffList[0].OrderNumber)

	aliceList, err := aliceNotes.List(ctx)
	require.NoError(t, err)
	require.Len(t, aliceList, 2)
	assert.Equal(t, models.StatusNotificationType(models.StatusReady), aliceList[0].Type)
	assert.Equal(t, models.PriorityHigh, aliceList[0].Priority)
	assert.Equal(t, models.NotificationOrderPlaced, aliceList[1].Type)
}
